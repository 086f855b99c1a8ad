package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOfSize(name string, size int) *File {
	return FileFromBytes(name, "image/png", make([]byte, size))
}

func validInput() Input {
	return Input{
		Name:     "joao silva",
		Email:    "joao@hotmail.com",
		Password: "senha1",
		Techs:    NewTechList("x", "y", "z").Entries(),
		Avatar:   []*File{pngOfSize("avatar.png", 1024*1024)},
	}
}

func TestValidate_Success(t *testing.T) {
	sub, err := Validate(validInput())
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, "Joao Silva", sub.Name)
	assert.Equal(t, "joao@hotmail.com", sub.Email)
	assert.Equal(t, "senha1", sub.Password)
	assert.Equal(t, []Tech{{Title: "x"}, {Title: "y"}, {Title: "z"}}, sub.Techs)
	assert.Equal(t, "avatar.png", sub.Avatar.Name)
	assert.Equal(t, int64(1024*1024), sub.Avatar.Size)
}

func TestValidate_Name(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "two words", input: "ana maria", want: "Ana Maria"},
		{name: "rest unchanged", input: "mcDonald o'neil", want: "McDonald O'neil"},
		{name: "already capitalized", input: "Ana Maria", want: "Ana Maria"},
		{name: "surrounding whitespace trimmed", input: "  ana  ", want: "Ana"},
		{name: "double space preserved", input: "ana  maria", want: "Ana  Maria"},
		{name: "non ascii first letter", input: "élodie ávila", want: "Élodie Ávila"},
		{name: "empty", input: "", wantErr: ErrRequired},
		{name: "whitespace only", input: "   ", wantErr: ErrRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalName(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_Email(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "valid hotmail", input: "joao@hotmail.com", want: "joao@hotmail.com"},
		{name: "lowercased", input: "Joao.Silva@HOTMAIL.COM", want: "joao.silva@hotmail.com"},
		{name: "other provider", input: "a@gmail.com", wantErr: ErrDomain},
		{name: "lookalike domain", input: "a@hotmail.com.br", wantErr: ErrDomain},
		{name: "malformed", input: "not-an-email", wantErr: ErrFormat},
		{name: "missing local part", input: "@hotmail.com", wantErr: ErrFormat},
		{name: "empty", input: "", wantErr: ErrRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalEmail(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalEmail_Idempotent(t *testing.T) {
	once, err := CanonicalEmail("maria@hotmail.com")
	require.NoError(t, err)
	twice, err := CanonicalEmail(once)
	require.NoError(t, err)

	assert.Equal(t, "maria@hotmail.com", once)
	assert.Equal(t, once, twice)
}

func TestValidate_Password(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
		strong   bool
	}{
		{password: "abc123", valid: true, strong: false},
		{password: "Abc123!@", valid: true, strong: true},
		{password: "abc12", valid: false, strong: false},
		{password: "", valid: false, strong: false},
		{password: "Abc12!x", valid: true, strong: false},
		{password: "ABCDEFG1!", valid: true, strong: false},
		{password: "abcdefgh", valid: true, strong: false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			in := validInput()
			in.Password = tt.password

			_, err := Validate(in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var verrs *ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.True(t, verrs.Has(PathPassword, ErrLength))
			}
			assert.Equal(t, tt.strong, PasswordStrong(tt.password))
		})
	}
}

func TestValidate_TechsMinCount(t *testing.T) {
	in := validInput()
	in.Techs = NewTechList("go", "rust").Entries()

	_, err := Validate(in)
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(PathTechs, ErrMinCount))
	assert.Equal(t, []string{PathTechs}, verrs.Paths())

	in.Techs = NewTechList("go", "rust", "zig").Entries()
	_, err = Validate(in)
	assert.NoError(t, err)
}

func TestValidate_TechsEmptyTitle(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		paths  []string
	}{
		{name: "empty in long list", titles: []string{"go", "", "zig", "c"}, paths: []string{"techs.1.title"}},
		{name: "empty in short list", titles: []string{""}, paths: []string{PathTechs, "techs.0.title"}},
		{name: "several empty", titles: []string{"", "go", ""}, paths: []string{"techs.0.title", "techs.2.title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Techs = NewTechList(tt.titles...).Entries()

			_, err := Validate(in)
			var verrs *ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.paths, verrs.Paths())
			for _, p := range tt.paths {
				if p == PathTechs {
					continue
				}
				assert.True(t, verrs.Has(p, ErrRequired), p)
			}
		})
	}
}

func TestValidate_Avatar(t *testing.T) {
	tests := []struct {
		name    string
		files   []*File
		wantErr error
	}{
		{name: "exactly max size", files: []*File{pngOfSize("a.png", 5242880)}},
		{name: "one byte over", files: []*File{pngOfSize("a.png", 5242881)}, wantErr: ErrSize},
		{name: "gif rejected", files: []*File{FileFromBytes("a.gif", "image/gif", []byte("GIF89a"))}, wantErr: ErrType},
		{name: "jpeg", files: []*File{FileFromBytes("a.jpeg", "image/jpeg", []byte{0xff, 0xd8})}},
		{name: "jpg", files: []*File{FileFromBytes("a.jpg", "image/jpg", []byte{0xff, 0xd8})}},
		{name: "webp", files: []*File{FileFromBytes("a.webp", "image/webp", []byte("RIFF"))}},
		{name: "uppercase type", files: []*File{FileFromBytes("a.png", "IMAGE/PNG", []byte{0x89})}},
		{name: "missing type", files: []*File{FileFromBytes("a", "", []byte{0x89})}, wantErr: ErrType},
		{name: "no file", files: nil, wantErr: ErrRequired},
		{name: "two files", files: []*File{pngOfSize("a.png", 10), pngOfSize("b.png", 10)}, wantErr: ErrRequired},
		{name: "oversized gif reports size first", files: []*File{FileFromBytes("a.gif", "image/gif", make([]byte, 5242881))}, wantErr: ErrSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Avatar = tt.files

			sub, err := Validate(in)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Same(t, tt.files[0], sub.Avatar)
				return
			}
			var verrs *ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs.Get(PathAvatar), 1)
			assert.ErrorIs(t, verrs.Get(PathAvatar)[0], tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllFields(t *testing.T) {
	sub, err := Validate(Input{
		Email:    "a@gmail.com",
		Password: "123",
		Techs:    NewTechList("go", "").Entries(),
	})
	assert.Nil(t, sub)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"avatar", "email", "name", "password", "techs", "techs.1.title"}, verrs.Paths())
	assert.True(t, verrs.Has(PathName, ErrRequired))
	assert.True(t, verrs.Has(PathEmail, ErrDomain))
	assert.True(t, verrs.Has(PathPassword, ErrLength))
	assert.True(t, verrs.Has(PathTechs, ErrMinCount))
	assert.True(t, verrs.Has(PathAvatar, ErrRequired))
	assert.Equal(t, []string{"Email must be a hotmail.com address"}, verrs.Messages(PathEmail))
	assert.True(t, strings.HasPrefix(verrs.Error(), "validation failed: avatar: "))
}

func TestApply_ShortCircuits(t *testing.T) {
	calls := 0
	count := func(v string) (string, error) {
		calls++
		return v, nil
	}

	_, err := Apply("", Required("x", "required"), count)
	require.Error(t, err)
	assert.Equal(t, 0, calls)

	got, err := Apply("ok", Required("x", "required"), count, Lowercase())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestFieldError_KindName(t *testing.T) {
	assert.Equal(t, "min_count", newFieldError("techs", ErrMinCount, "").KindName())
	assert.Equal(t, "type", newFieldError("avatar", ErrType, "").KindName())
	assert.Equal(t, "unknown", newFieldError("x", errors.New("other"), "").KindName())
}
