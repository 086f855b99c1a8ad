package drafts

import (
	"sync"
	"time"

	"github.com/formsnap/signup-api/internal/form"
	apperrors "github.com/formsnap/signup-api/pkg/errors"
	"github.com/formsnap/signup-api/pkg/logger"
	"github.com/formsnap/signup-api/pkg/metrics"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const cacheName = "drafts"

// Draft is the live, editable state of one form.
type Draft struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	name      string
	email     string
	password  string
	techs     *form.TechList
	attempt   *form.Attempt
	updatedAt time.Time
}

// Snapshot is an immutable copy of a draft's values.
type Snapshot struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Techs     []form.TechEntry
	State     form.AttemptState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields carries optional live field updates; nil leaves a field unchanged.
type Fields struct {
	Name     *string
	Email    *string
	Password *string
}

func newDraft() *Draft {
	now := time.Now()
	return &Draft{
		ID:        uuid.NewString(),
		CreatedAt: now,
		techs:     &form.TechList{},
		attempt:   form.NewAttempt(),
		updatedAt: now,
	}
}

// Attempt returns the draft's submit state machine.
func (d *Draft) Attempt() *form.Attempt {
	return d.attempt
}

// Edit runs fn with exclusive access to the draft's tech list.
func (d *Draft) Edit(fn func(techs *form.TechList) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := fn(d.techs); err != nil {
		return err
	}
	d.updatedAt = time.Now()
	return nil
}

// SetFields applies live field updates.
func (d *Draft) SetFields(f Fields) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f.Name != nil {
		d.name = *f.Name
	}
	if f.Email != nil {
		d.email = *f.Email
	}
	if f.Password != nil {
		d.password = *f.Password
	}
	d.updatedAt = time.Now()
}

// Snapshot copies the draft's current values.
func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		ID:        d.ID,
		Name:      d.name,
		Email:     d.email,
		Password:  d.password,
		Techs:     d.techs.Entries(),
		State:     d.attempt.State(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.updatedAt,
	}
}

// Store keeps drafts in memory and expires them after a period of inactivity.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore creates a draft store with the given inactivity TTL
func NewStore(ttl time.Duration) *Store {
	c := gocache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, _ interface{}) {
		logger.Debug("Draft expired", zap.String("draft_id", id))
	})
	return &Store{cache: c, ttl: ttl}
}

// Create registers a new empty draft
func (s *Store) Create() *Draft {
	d := newDraft()
	s.cache.Set(d.ID, d, s.ttl)
	metrics.CacheSize.WithLabelValues(cacheName).Set(float64(s.cache.ItemCount()))
	return d
}

// Get returns the draft and extends its lifetime
func (s *Store) Get(id string) (*Draft, error) {
	data, found := s.cache.Get(id)
	if !found {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, apperrors.NotFoundError("draft")
	}

	d, ok := data.(*Draft)
	if !ok {
		logger.Error("Invalid draft cache data type", zap.String("draft_id", id))
		s.cache.Delete(id)
		return nil, apperrors.InternalError("invalid draft cache data type")
	}

	metrics.CacheHits.WithLabelValues(cacheName).Inc()
	s.cache.Set(id, d, s.ttl)
	return d, nil
}

// Delete removes a draft
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
	metrics.CacheSize.WithLabelValues(cacheName).Set(float64(s.cache.ItemCount()))
}

// Len returns the number of live drafts
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
