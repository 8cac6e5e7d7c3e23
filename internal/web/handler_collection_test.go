package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/photoshelf/internal/docstore"
	"github.com/vbonduro/photoshelf/internal/domain"
	"github.com/vbonduro/photoshelf/internal/service"
)

type stubService struct {
	loadErr  error
	saveErr  error
	panicMsg string
	saved    []byte
}

func (s *stubService) Load(_ context.Context) (*domain.Document, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	doc := domain.NewDocument()
	doc.Set("photos", json.RawMessage(`{}`))
	doc.Set("nextId", json.RawMessage(`1`))
	return doc, nil
}

func (s *stubService) Save(_ context.Context, body []byte) (*domain.SaveResult, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = body
	return &domain.SaveResult{Success: true, Message: "Photos saved successfully", Timestamp: 1, TotalPhotos: 0}, nil
}

func newTestServer(svc DocumentService) *Server {
	return NewServer(svc, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestHandlePreflight(t *testing.T) {
	rec := serve(newTestServer(&stubService{}), http.MethodOptions, "/anything", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec)
}

func TestHandleLoadHeaders(t *testing.T) {
	rec := serve(newTestServer(&stubService{}), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestHandleLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "corrupted",
			err:  fmt.Errorf("%w: unexpected EOF", service.ErrCorruptedStore),
			want: "Corrupted data file",
		},
		{
			name: "read failure",
			err:  errors.New("permission denied"),
			want: "Server error: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(&stubService{loadErr: tt.err}), http.MethodGet, "/", "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assertCORS(t, rec)
			assert.Equal(t, tt.want, errorBody(t, rec))
			assert.Empty(t, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestHandleSaveErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{
			name:   "invalid json",
			err:    fmt.Errorf("%w: unexpected EOF", service.ErrInvalidJSON),
			status: http.StatusBadRequest,
			want:   "Invalid JSON data",
		},
		{
			name:   "missing fields",
			err:    service.ErrMissingFields,
			status: http.StatusBadRequest,
			want:   "Missing required fields",
		},
		{
			name:   "write failed",
			err:    fmt.Errorf("%w: disk full", service.ErrWriteFailed),
			status: http.StatusInternalServerError,
			want:   "Failed to save data",
		},
		{
			name:   "directory unavailable",
			err:    fmt.Errorf("%w: %w", service.ErrWriteFailed, docstore.ErrDirectoryUnavailable),
			status: http.StatusInternalServerError,
			want:   "Could not create data directory",
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			want:   "Server error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(&stubService{saveErr: tt.err}), http.MethodPost, "/", `{}`)

			assert.Equal(t, tt.status, rec.Code)
			assertCORS(t, rec)
			assert.Equal(t, tt.want, errorBody(t, rec))
		})
	}
}

func TestHandleSavePassesBody(t *testing.T) {
	svc := &stubService{}
	body := `{"photos":{},"nextId":3}`
	rec := serve(newTestServer(svc), http.MethodPost, "/save", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, string(svc.saved))

	var result domain.SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "Photos saved successfully", result.Message)
}

func TestHandleSaveBodyTooLarge(t *testing.T) {
	svc := &stubService{}
	rec := serve(newTestServer(svc), http.MethodPost, "/", strings.Repeat("x", 2048))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assertCORS(t, rec)
	assert.Equal(t, "Request body too large", errorBody(t, rec))
	assert.Nil(t, svc.saved)
}

func TestMethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			rec := serve(newTestServer(&stubService{}), method, "/", "")

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assertCORS(t, rec)
			assert.Equal(t, "Method not allowed", errorBody(t, rec))
		})
	}
}

func TestPanicRecovered(t *testing.T) {
	rec := serve(newTestServer(&stubService{panicMsg: "nil map"}), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertCORS(t, rec)
	assert.Equal(t, "Server error: nil map", errorBody(t, rec))
}

func TestSaveErrorResponseOrder(t *testing.T) {
	// DirectoryUnavailable arrives wrapped in ErrWriteFailed and must win.
	status, msg := saveErrorResponse(fmt.Errorf("%w: %w", service.ErrWriteFailed, docstore.ErrDirectoryUnavailable))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgDirectory, msg)
}
