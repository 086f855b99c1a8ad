package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/models"
	"github.com/formsnap/signup-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// SubmissionHandler handles stateless form submissions
type SubmissionHandler struct {
	service services.SubmissionServiceInterface
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(service services.SubmissionServiceInterface) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// Submit handles POST /api/v1/submissions.
// Accepts multipart/form-data or JSON with inline base64 avatars.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var (
		in  *form.Input
		err error
	)

	if c.ContentType() == binding.MIMEJSON {
		var req models.SubmitFormRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
		in, err = inputFromJSON(&req)
	} else {
		in, err = inputFromMultipart(c)
	}
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PasswordStrength handles POST /api/v1/password-strength
func (h *SubmissionHandler) PasswordStrength(c *gin.Context) {
	var req models.PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	_, invalid := form.Apply(req.Password, form.MinLength(form.PathPassword, form.MinPasswordLength, ""))
	c.JSON(http.StatusOK, models.PasswordStrengthResponse{
		Strong: form.PasswordStrong(req.Password),
		Valid:  invalid == nil,
	})
}

func inputFromMultipart(c *gin.Context) (*form.Input, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	return &form.Input{
		Name:     firstValue(mf.Value, "name"),
		Email:    firstValue(mf.Value, "email"),
		Password: firstValue(mf.Value, "password"),
		Techs:    form.NewTechList(techTitles(mf.Value)...).Entries(),
		Avatar:   avatarFiles(mf),
	}, nil
}

func inputFromJSON(req *models.SubmitFormRequest) (*form.Input, error) {
	titles := make([]string, len(req.Techs))
	for i, t := range req.Techs {
		titles[i] = t.Title
	}

	avatars := make([]*form.File, 0, len(req.Avatar))
	for _, a := range req.Avatar {
		data, err := base64.StdEncoding.DecodeString(stripDataURL(a.Image))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 avatar %q: %w", a.FileName, err)
		}
		avatars = append(avatars, form.FileFromBytes(a.FileName, a.ContentType, data))
	}

	return &form.Input{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Techs:    form.NewTechList(titles...).Entries(),
		Avatar:   avatars,
	}, nil
}

// techTitles reads "techs.<i>.title" fields ordered by index, falling back to
// repeated "techs" values. Only canonical decimal indices are read, so each
// index names at most one key.
func techTitles(values map[string][]string) []string {
	type indexed struct {
		index int
		title string
	}
	var entries []indexed
	for key, v := range values {
		if !strings.HasPrefix(key, form.PathTechs+".") || !strings.HasSuffix(key, ".title") {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(key, form.PathTechs+"."), ".title")
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 || strconv.Itoa(i) != raw || len(v) == 0 {
			continue
		}
		entries = append(entries, indexed{index: i, title: v[0]})
	}

	if len(entries) == 0 {
		return values[form.PathTechs]
	}

	sort.Slice(entries, func(a, b int) bool { return entries[a].index < entries[b].index })
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.title
	}
	return titles
}

func avatarFiles(mf *multipart.Form) []*form.File {
	headers := mf.File[form.PathAvatar]
	files := make([]*form.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, form.FileFromMultipart(fh))
	}
	return files
}

// multipartAvatars reads avatar files from an optional multipart body.
func multipartAvatars(c *gin.Context) ([]*form.File, error) {
	mf, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	return avatarFiles(mf), nil
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func stripDataURL(s string) string {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+len(";base64,"):]
	}
	return s
}
