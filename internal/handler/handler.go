package handler

import (
	"github.com/mlevan/imagetier/internal/config"
	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/link"
	"github.com/mlevan/imagetier/internal/storage"
	"github.com/mlevan/imagetier/internal/thumbnail"
	"github.com/mlevan/imagetier/internal/tier"
	"github.com/mlevan/imagetier/internal/token"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Codec  *token.Codec
	Tiers  *tier.Resolver
	Thumbs *thumbnail.Generator
	Links  *link.Issuer
}
