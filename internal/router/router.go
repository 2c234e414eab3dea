package router

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/config"
	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/handler"
	"github.com/mlevan/imagetier/internal/link"
	"github.com/mlevan/imagetier/internal/storage"
	"github.com/mlevan/imagetier/internal/thumbnail"
	"github.com/mlevan/imagetier/internal/tier"
	"github.com/mlevan/imagetier/internal/token"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Router chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(db database.Database, store storage.Storage, cfg *config.Config) *Server {
	s := &Server{DB: db, Store: store, Config: cfg}

	codec := token.NewCodec(cfg.SigningSecret)
	h := &handler.Handler{
		DB:     db,
		Store:  store,
		Config: cfg,
		Codec:  codec,
		Tiers:  tier.NewResolver(db),
		Thumbs: thumbnail.NewGenerator(db, store),
		Links:  link.NewIssuer(codec, func() string { return cfg.BaseURL }),
	}

	r := chi.NewRouter()

	// CORS — must be before other middleware to handle preflight OPTIONS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check (no auth required).
	r.Get("/health", s.Health)

	// Signed-asset endpoint: the token is the only credential.
	r.Get("/serve-image/{token}", h.ServeSignedImage)

	// Authenticated API.
	r.Group(func(r chi.Router) {
		r.Use(api.AuthMiddleware(db))

		r.Post("/upload", h.UploadImage)
		r.Get("/list", h.ListImages)
		r.Get("/expiring-link/{image_id}", h.GenerateExpiringLink)

		r.Get("/images/{image_id}/original", h.ServeOriginal)
		r.Get("/images/{image_id}/thumbnail/{dimension}", h.ServeThumbnail)

		// Catalog administration.
		r.Group(func(r chi.Router) {
			r.Use(api.StaffOnly)

			r.Post("/account-tiers", h.CreateTier)
			r.Get("/account-tiers", h.ListTiers)
			r.Get("/account-tiers/{tier_name}", h.GetTier)
			r.Put("/account-tiers/{tier_name}", h.UpdateTier)
			r.Delete("/account-tiers/{tier_name}", h.DeleteTier)

			r.Post("/thumbnail-sizes", h.CreateThumbnailSize)
			r.Get("/thumbnail-sizes", h.ListThumbnailSizes)
			r.Delete("/thumbnail-sizes/{dimension}", h.DeleteThumbnailSize)
		})
	})

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		log.Printf("Health: failed to encode response: %v", err)
	}
}
