package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gallerd"
	gallerdhttp "gallerd/http"
)

type SpyService struct {
	mock.Mock
}

func (s *SpyService) Upload(ctx context.Context, entries []gallerd.UploadEntry) (gallerd.UploadResult, error) {
	args := s.Called(ctx, entries)
	return args.Get(0).(gallerd.UploadResult), args.Error(1)
}

func (s *SpyService) List(ctx context.Context) ([]gallerd.ImageRecord, error) {
	args := s.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gallerd.ImageRecord), args.Error(1)
}

func (s *SpyService) Delete(ctx context.Context, id string) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

type stubBlobReader struct {
	blobs map[string][]byte
}

func (s *stubBlobReader) Open(_ context.Context, path string) (io.ReadSeekCloser, error) {
	data, ok := s.blobs[path]
	if !ok {
		return nil, fmt.Errorf("open %q: %w", path, gallerd.ErrNotFound)
	}
	return nopSeekCloser{bytes.NewReader(data)}, nil
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

func newTestRouter(t *testing.T, config *gallerdhttp.HandlerConfig, service gallerdhttp.Service, blobs gallerdhttp.BlobReader) http.Handler {
	t.Helper()
	return gallerdhttp.NewHandler(config, service, blobs).Router()
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestLogin(t *testing.T) {
	verify := func(username, password string) bool {
		return username == "owner" && password == "hunter22"
	}

	t.Run("valid credentials return api key", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{
			APIKey:      "secret-key",
			VerifyLogin: verify,
		}, &SpyService{}, nil)

		body := strings.NewReader(`{"username":"owner","password":"hunter22"}`)
		req := httptest.NewRequest(http.MethodPost, "/login", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool   `json:"success"`
			APIKey  string `json:"apiKey"`
		}
		decodeJSON(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "secret-key", resp.APIKey)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{
			APIKey:      "secret-key",
			VerifyLogin: verify,
		}, &SpyService{}, nil)

		body := strings.NewReader(`{"username":"owner","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/login", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "unauthorized", resp.Error)
		assert.Equal(t, "Invalid username or password", resp.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{
			VerifyLogin: verify,
		}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("endpoint absent without verifier", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

		body := strings.NewReader(`{"username":"owner","password":"hunter22"}`)
		req := httptest.NewRequest(http.MethodPost, "/login", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpload(t *testing.T) {
	record := gallerd.ImageRecord{
		ID:        "1709251200000-abc123.jpg",
		FilePath:  "2024-03/1709251200000-abc123.jpg",
		URL:       "http://localhost:5712/blob/2024-03/1709251200000-abc123.jpg",
		Date:      "2024-03-01T00:00:00Z",
		MonthYear: "2024-03",
	}

	t.Run("successful upload", func(t *testing.T) {
		service := &SpyService{}
		service.On("Upload", mock.Anything, mock.Anything).Return(gallerd.UploadResult{
			Images: []gallerd.ImageRecord{record},
		}, nil)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		body := strings.NewReader(`{"images":[{"base64":"data:image/jpeg;base64,AAAA","date":"2024-03-01T00:00:00Z","monthYear":"2024-03"}]}`)
		req := httptest.NewRequest(http.MethodPost, "/images", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool                   `json:"success"`
			Images  []gallerd.ImageRecord  `json:"images"`
			Skipped []gallerd.SkippedEntry `json:"skipped"`
		}
		decodeJSON(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, []gallerd.ImageRecord{record}, resp.Images)
		assert.Empty(t, resp.Skipped)
		service.AssertExpectations(t)
	})

	t.Run("skipped entries reported", func(t *testing.T) {
		service := &SpyService{}
		service.On("Upload", mock.Anything, mock.Anything).Return(gallerd.UploadResult{
			Images:  []gallerd.ImageRecord{},
			Skipped: []gallerd.SkippedEntry{{Index: 0, Reason: "invalid base64 image data"}},
		}, nil)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		body := strings.NewReader(`{"images":[{"base64":"garbage"}]}`)
		req := httptest.NewRequest(http.MethodPost, "/images", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool                   `json:"success"`
			Skipped []gallerd.SkippedEntry `json:"skipped"`
		}
		decodeJSON(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, []gallerd.SkippedEntry{{Index: 0, Reason: "invalid base64 image data"}}, resp.Skipped)
	})

	t.Run("missing images field", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp struct {
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "Images array is required", resp.Message)
	})

	t.Run("null images field", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{"images":null}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("images not an array", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{"images":"nope"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp struct {
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "Images must be an array", resp.Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires bearer token when key configured", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{APIKey: "secret-key"}, &SpyService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/images", strings.NewReader(`{"images":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "unauthorized", resp.Error)
		assert.Equal(t, "Invalid or missing bearer token", resp.Message)
	})
}

func TestList(t *testing.T) {
	t.Run("returns records", func(t *testing.T) {
		records := []gallerd.ImageRecord{
			{ID: "a.jpg", FilePath: "2024-03/a.jpg", MonthYear: "2024-03", Date: "2024-03-01T00:00:00Z"},
			{ID: "b.jpg", FilePath: "2024-04/b.jpg", MonthYear: "2024-04", Date: "2024-04-01T00:00:00Z"},
		}
		service := &SpyService{}
		service.On("List", mock.Anything).Return(records, nil)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		req := httptest.NewRequest(http.MethodGet, "/images", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Images []gallerd.ImageRecord `json:"images"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, records, resp.Images)
	})

	t.Run("empty gallery serializes as empty array", func(t *testing.T) {
		service := &SpyService{}
		service.On("List", mock.Anything).Return(nil, nil)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		req := httptest.NewRequest(http.MethodGet, "/images", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"images":[]}`, rec.Body.String())
	})

	t.Run("repo failure", func(t *testing.T) {
		service := &SpyService{}
		service.On("List", mock.Anything).Return(nil, gallerd.ErrInternal)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		req := httptest.NewRequest(http.MethodGet, "/images", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDelete(t *testing.T) {
	t.Run("successful delete", func(t *testing.T) {
		service := &SpyService{}
		service.On("Delete", mock.Anything, "1709251200000-abc123.jpg").Return(nil)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		req := httptest.NewRequest(http.MethodDelete, "/images/1709251200000-abc123.jpg", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		service.AssertExpectations(t)
	})

	t.Run("unknown image", func(t *testing.T) {
		service := &SpyService{}
		service.On("Delete", mock.Anything, "nope.jpg").Return(gallerd.ErrNotFound)

		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, service, nil)

		req := httptest.NewRequest(http.MethodDelete, "/images/nope.jpg", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "not_found", resp.Error)
		assert.Equal(t, "Image not found", resp.Message)
	})
}

func TestBlob(t *testing.T) {
	signer := gallerd.NewSigner(gallerd.SigningConfig{
		Region:    "us-east-1",
		Service:   "s3",
		AccessKey: "AKIATEST",
		SecretKey: "testsecret",
	})
	verifier := gallerd.NewVerifier("us-east-1", "s3", func(accessKey string) (string, bool) {
		if accessKey == "AKIATEST" {
			return "testsecret", true
		}
		return "", false
	})

	blobs := &stubBlobReader{blobs: map[string][]byte{
		"2024-03/1709251200000-abc123.jpg": []byte("jpeg bytes"),
	}}

	config := &gallerdhttp.HandlerConfig{BlobVerifier: verifier}

	signedRequest := func(t *testing.T, path string) *http.Request {
		t.Helper()
		signed, err := signer.Presign("http://example.com", http.MethodGet, path, 3600, time.Now())
		require.NoError(t, err)
		u, err := url.Parse(signed)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, u.Path+"?"+u.RawQuery, nil)
		req.Host = "example.com"
		return req
	}

	t.Run("signed request serves blob", func(t *testing.T) {
		router := newTestRouter(t, config, &SpyService{}, blobs)

		req := signedRequest(t, "/blob/2024-03/1709251200000-abc123.jpg")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, gallerd.JPEGContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, "jpeg bytes", rec.Body.String())
	})

	t.Run("unsigned request rejected", func(t *testing.T) {
		router := newTestRouter(t, config, &SpyService{}, blobs)

		req := httptest.NewRequest(http.MethodGet, "/blob/2024-03/1709251200000-abc123.jpg", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing blob", func(t *testing.T) {
		router := newTestRouter(t, config, &SpyService{}, blobs)

		req := signedRequest(t, "/blob/2024-03/missing.jpg")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var resp struct {
			Message string `json:"message"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "Blob not found", resp.Message)
	})

	t.Run("traversal path rejected", func(t *testing.T) {
		router := newTestRouter(t, config, &SpyService{}, blobs)

		req := signedRequest(t, "/blob/..%2Fsecrets.jpg")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		// chi decodes the wildcard, the path check catches the dotdot.
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})

	t.Run("route absent without verifier", func(t *testing.T) {
		router := newTestRouter(t, &gallerdhttp.HandlerConfig{}, &SpyService{}, blobs)

		req := httptest.NewRequest(http.MethodGet, "/blob/2024-03/1709251200000-abc123.jpg", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBasePath(t *testing.T) {
	service := &SpyService{}
	service.On("List", mock.Anything).Return([]gallerd.ImageRecord{}, nil)

	router := newTestRouter(t, &gallerdhttp.HandlerConfig{BasePath: "/api"}, service, nil)

	t.Run("mounted under prefix", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/images", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bare path not served", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/images", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
