package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/formsnap/signup-api/config"
	"github.com/formsnap/signup-api/internal/drafts"
	"github.com/formsnap/signup-api/internal/services"
	"github.com/formsnap/signup-api/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (u *stubUploader) Upload(_ context.Context, key, _ string, data []byte) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	if u.err != nil {
		return nil, u.err
	}
	return &storage.UploadResult{Bucket: "forms-nextjs", Key: key, Size: int64(len(data))}, nil
}

func (u *stubUploader) calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.keys...)
}

func newTestRouter(uploader services.Uploader, policy string) *gin.Engine {
	cfg := &config.Config{Submission: config.SubmissionConfig{UploadFailurePolicy: policy}}
	submissions := services.NewSubmissionService(uploader, cfg)
	draftService := services.NewDraftService(drafts.NewStore(time.Minute), submissions)

	submissionHandler := NewSubmissionHandler(submissions)
	draftHandler := NewDraftHandler(draftService)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/submissions", submissionHandler.Submit)
	v1.POST("/password-strength", submissionHandler.PasswordStrength)
	v1.POST("/drafts", draftHandler.Create)
	v1.GET("/drafts/:id", draftHandler.Get)
	v1.PUT("/drafts/:id", draftHandler.Update)
	v1.POST("/drafts/:id/techs", draftHandler.AppendTech)
	v1.PUT("/drafts/:id/techs/:index", draftHandler.SetTech)
	v1.DELETE("/drafts/:id/techs/:index", draftHandler.RemoveTech)
	v1.POST("/drafts/:id/submit", draftHandler.Submit)
	return router
}

type avatarPart struct {
	name        string
	contentType string
	size        int
}

func multipartBody(t *testing.T, fields [][2]string, avatars ...avatarPart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, a := range avatars {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename="%s"`, a.name))
		h.Set("Content-Type", a.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(make([]byte, a.size))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// validFields returns a multipart submission that passes validation.
func validFields() [][2]string {
	return [][2]string{
		{"name", "joao silva"},
		{"email", "joao@hotmail.com"},
		{"password", "senha1"},
		{"techs.0.title", "x"},
		{"techs.1.title", "y"},
		{"techs.2.title", "z"},
	}
}

func doMultipart(router *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
