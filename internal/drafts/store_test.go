package drafts

import (
	"testing"
	"time"

	"github.com/formsnap/signup-api/internal/form"
	apperrors "github.com/formsnap/signup-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStore_CreateGet(t *testing.T) {
	store := NewStore(time.Minute)
	d := store.Create()

	got, err := store.Get(d.ID)
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Equal(t, 1, store.Len())

	snap := got.Snapshot()
	assert.Equal(t, d.ID, snap.ID)
	assert.Empty(t, snap.Techs)
	assert.Equal(t, form.StateIdle, snap.State)
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(time.Minute)
	_, err := store.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Expiry(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	d := store.Create()

	time.Sleep(40 * time.Millisecond)

	_, err := store.Get(d.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Minute)
	d := store.Create()
	store.Delete(d.ID)

	_, err := store.Get(d.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDraft_SetFieldsPartial(t *testing.T) {
	d := newDraft()
	d.SetFields(Fields{Name: strPtr("ana"), Email: strPtr("ana@hotmail.com")})
	d.SetFields(Fields{Password: strPtr("secret1")})

	snap := d.Snapshot()
	assert.Equal(t, "ana", snap.Name)
	assert.Equal(t, "ana@hotmail.com", snap.Email)
	assert.Equal(t, "secret1", snap.Password)
}

func TestDraft_EditTechs(t *testing.T) {
	d := newDraft()
	require.NoError(t, d.Edit(func(techs *form.TechList) error {
		techs.Append()
		return techs.SetTitle(0, "Go")
	}))

	err := d.Edit(func(techs *form.TechList) error {
		return techs.Remove(5)
	})
	assert.ErrorIs(t, err, form.ErrIndexOutOfRange)

	snap := d.Snapshot()
	require.Len(t, snap.Techs, 1)
	assert.Equal(t, "Go", snap.Techs[0].Title)
}
