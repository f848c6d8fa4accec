package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerd/client"
)

// writeJPEG drops a minimal JPEG file into a temp dir and returns its path.
func writeJPEG(t *testing.T) string {
	t.Helper()
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newClient(t *testing.T, endpoint, apiKey string) *client.Client {
	t.Helper()
	c, err := client.New(&client.Config{Endpoint: endpoint, APIKey: apiKey})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := client.New(nil)
		assert.ErrorIs(t, err, client.ErrConfigRequired)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		c := newClient(t, server.URL+"/", "")
		assert.NoError(t, c.Health(context.Background()))
	})
}

func TestClientHealth(t *testing.T) {
	t.Run("healthy server", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")
		assert.NoError(t, c.Health(context.Background()))
	})

	t.Run("failing server", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")
		assert.Error(t, c.Health(context.Background()))
	})
}

func TestClientLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Username != "owner" || req.Password != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "unauthorized", "message": "Invalid username or password",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "apiKey": "secret-key"})
	}))
	defer server.Close()

	t.Run("valid credentials", func(t *testing.T) {
		c := newClient(t, server.URL, "")

		key, err := c.Login(context.Background(), "owner", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "secret-key", key)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		c := newClient(t, server.URL, "")

		_, err := c.Login(context.Background(), "owner", "wrong")
		assert.ErrorIs(t, err, client.ErrUnauthorized)
	})
}

func TestClientList(t *testing.T) {
	t.Run("parses records", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"images": []map[string]any{{
					"id":        "1709251200000-abc123.jpg",
					"filePath":  "2024-03/1709251200000-abc123.jpg",
					"url":       "http://example.com/blob/2024-03/1709251200000-abc123.jpg",
					"date":      "2024-03-01T10:30:00Z",
					"monthYear": "2024-03",
				}},
			})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "secret-key")

		images, err := c.List(context.Background())
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "1709251200000-abc123.jpg", images[0].ID)
		assert.Equal(t, "2024-03", images[0].MonthYear)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), images[0].Date)
	})

	t.Run("unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "unauthorized", "message": "Invalid or missing bearer token",
			})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "wrong")

		_, err := c.List(context.Background())
		assert.ErrorIs(t, err, client.ErrUnauthorized)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Invalid or missing bearer token", apiErr.Message)
	})
}

func TestClientUpload(t *testing.T) {
	t.Run("no paths", func(t *testing.T) {
		c := newClient(t, "http://localhost:1", "")

		_, err := c.Upload(context.Background(), nil)
		assert.ErrorIs(t, err, client.ErrNoPaths)
	})

	t.Run("uploads a jpeg", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Images []struct {
					Base64    string `json:"base64"`
					Date      string `json:"date"`
					MonthYear string `json:"monthYear"`
				} `json:"images"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Images, 1)
			assert.True(t, len(req.Images[0].Base64) > len("data:image/jpeg;base64,"))
			assert.Contains(t, req.Images[0].Base64, "data:image/jpeg;base64,")

			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"images": []map[string]any{{
					"id":        "1709251200000-abc123.jpg",
					"filePath":  "2024-03/1709251200000-abc123.jpg",
					"date":      req.Images[0].Date,
					"monthYear": req.Images[0].MonthYear,
				}},
			})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")

		outcome, err := c.Upload(context.Background(), []string{writeJPEG(t)})
		require.NoError(t, err)
		assert.Len(t, outcome.Uploaded, 1)
		assert.Empty(t, outcome.Skipped)
		assert.Empty(t, outcome.Rejected)
	})

	t.Run("non-jpeg rejected locally", func(t *testing.T) {
		pngPath := filepath.Join(t.TempDir(), "image.png")
		require.NoError(t, os.WriteFile(pngPath, []byte{0x89, 'P', 'N', 'G'}, 0o600))

		fakeJPEG := filepath.Join(t.TempDir(), "fake.jpg")
		require.NoError(t, os.WriteFile(fakeJPEG, []byte("not a jpeg"), 0o600))

		c := newClient(t, "http://localhost:1", "")

		outcome, err := c.Upload(context.Background(), []string{pngPath, fakeJPEG})
		require.NoError(t, err)
		assert.Empty(t, outcome.Uploaded)
		assert.Len(t, outcome.Rejected, 2)
	})

	t.Run("server skips reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"images":  []map[string]any{},
				"skipped": []map[string]any{{"index": 0, "reason": "invalid base64 image data"}},
			})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")

		outcome, err := c.Upload(context.Background(), []string{writeJPEG(t)})
		require.NoError(t, err)
		assert.Empty(t, outcome.Uploaded)
		require.Len(t, outcome.Skipped, 1)
		assert.Equal(t, "invalid base64 image data", outcome.Skipped[0].Reason)
	})
}

func TestClientDelete(t *testing.T) {
	t.Run("empty id", func(t *testing.T) {
		c := newClient(t, "http://localhost:1", "")
		assert.ErrorIs(t, c.Delete(context.Background(), ""), client.ErrEmptyImageID)
	})

	t.Run("successful delete", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/images/a.jpg", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")
		assert.NoError(t, c.Delete(context.Background(), "a.jpg"))
	})

	t.Run("unknown image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "not_found", "message": "Image not found",
			})
		}))
		defer server.Close()

		c := newClient(t, server.URL, "")

		err := c.Delete(context.Background(), "ghost.jpg")
		assert.ErrorIs(t, err, client.ErrNotFound)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
	})
}
