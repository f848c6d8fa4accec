package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"gallerd"
)

// Service is the gallery surface the handlers delegate to.
type Service interface {
	Upload(ctx context.Context, entries []gallerd.UploadEntry) (gallerd.UploadResult, error)
	List(ctx context.Context) ([]gallerd.ImageRecord, error)
	Delete(ctx context.Context, id string) error
}

// BlobReader serves raw blob bytes for signed local URLs. The filesystem
// store implements it; the s3 backend presigns against the object store
// directly and leaves this nil.
type BlobReader interface {
	Open(ctx context.Context, path string) (io.ReadSeekCloser, error)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// withDefaults fills empty CORS fields with the fully open policy the
// gallery ships with: any origin, the standard methods, Content-Type and
// Authorization headers.
func (c CORSConfig) withDefaults() CORSConfig {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"Content-Length"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 600
	}
	return c
}

type HandlerConfig struct {
	// BasePath is the route prefix all endpoints are mounted under
	// (default "/").
	BasePath string
	// APIKey is the shared bearer token; empty means public access.
	APIKey string
	// BlobVerifier enables the signed /blob route when non-nil.
	BlobVerifier *gallerd.Verifier
	// VerifyLogin checks the gallery owner's credentials; nil disables
	// the login endpoint.
	VerifyLogin func(username, password string) bool
	CORS        CORSConfig
}

// Handler provides HTTP handlers for the gallery API.
type Handler struct {
	config  HandlerConfig
	service Service
	blobs   BlobReader
}

// NewHandler creates a new Handler. blobs may be nil when the blob backend
// serves its own URLs.
func NewHandler(config *HandlerConfig, service Service, blobs BlobReader) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		blobs:   blobs,
	}
}

// Router returns an http.Handler with the gallery routes mounted under the
// configured base path.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	corsConfig := h.config.CORS.withDefaults()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsConfig.AllowedOrigins,
		AllowedMethods:   corsConfig.AllowedMethods,
		AllowedHeaders:   corsConfig.AllowedHeaders,
		ExposedHeaders:   corsConfig.ExposedHeaders,
		AllowCredentials: corsConfig.AllowCredentials,
		MaxAge:           corsConfig.MaxAge,
	}))

	basePath := h.config.BasePath
	if basePath == "" {
		basePath = "/"
	}

	r.Route(basePath, func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		if h.config.VerifyLogin != nil {
			r.Post("/login", h.handleLogin)
		}

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(h.config.APIKey))
			r.Post("/images", h.handleUpload)
			r.Get("/images", h.handleList)
			r.Delete("/images/{id}", h.handleDelete)
		})

		if h.blobs != nil && h.config.BlobVerifier != nil {
			r.Group(func(r chi.Router) {
				r.Use(SignedURLAuth(h.config.BlobVerifier))
				r.Get("/blob/*", h.handleBlob)
			})
		}
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	APIKey  string `json:"apiKey,omitempty"`
}

// handleLogin exchanges the owner's credentials for the API key. A failed
// attempt gets the same 401 regardless of which part was wrong.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	if !h.config.VerifyLogin(req.Username, req.Password) {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid username or password")
		return
	}

	_ = WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		APIKey:  h.config.APIKey,
	})
}

type uploadRequest struct {
	Images json.RawMessage `json:"images"`
}

type uploadResponse struct {
	Success bool                   `json:"success"`
	Images  []gallerd.ImageRecord  `json:"images"`
	Skipped []gallerd.SkippedEntry `json:"skipped,omitempty"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	if len(req.Images) == 0 || string(req.Images) == "null" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Images array is required")
		return
	}

	var entries []gallerd.UploadEntry
	if err := json.Unmarshal(req.Images, &entries); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Images must be an array")
		return
	}

	result, err := h.service.Upload(r.Context(), entries)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Images:  result.Images,
		Skipped: result.Skipped,
	})
}

type listResponse struct {
	Images []gallerd.ImageRecord `json:"images"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	if images == nil {
		images = []gallerd.ImageRecord{}
	}

	_ = WriteJSON(w, http.StatusOK, listResponse{Images: images})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, gallerd.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleBlob(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	if !gallerd.IsValidBlobPath(path) {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid blob path")
		return
	}

	content, err := h.blobs.Open(r.Context(), path)
	if err != nil {
		if errors.Is(err, gallerd.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Blob not found")
		} else {
			HandleError(w, err)
		}
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", gallerd.JPEGContentType)
	http.ServeContent(w, r, path, time.Time{}, content)
}
