package container

import (
	"fmt"

	"github.com/snipline/cutout/cmd/cutout/auth"
	"github.com/snipline/cutout/cmd/cutout/handlers"
	"github.com/snipline/cutout/cmd/cutout/pipeline"
	"github.com/snipline/cutout/cmd/cutout/repository"
	"github.com/snipline/cutout/cmd/cutout/service"
	"github.com/snipline/cutout/common/blob"
	"github.com/snipline/cutout/common/bootstrap"
)

// Container holds all initialized services and repositories, constructed
// once at startup and passed into request handlers
type Container struct {
	Components *bootstrap.Components

	// Repositories
	IdentityRepo *repository.IdentityRepository
	ImageRepo    *repository.ImageRepository

	// Infrastructure
	BlobStore blob.Store
	AnonCodec *auth.AnonTokenCodec
	Sessions  *auth.SessionStore
	Resolver  *auth.Resolver

	// Services
	IdentityService *service.IdentityService
	ImageService    *service.ImageService

	// Handlers
	ImageHandler *handlers.ImageHandler
	AuthHandler  *handlers.AuthHandler
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Repositories
	identityRepo := repository.NewIdentityRepository(components.DB)
	imageRepo := repository.NewImageRepository(components.DB)

	// Blob storage backend
	var blobStore blob.Store
	switch cfg.Storage.Backend {
	case "postgres":
		blobStore = blob.NewPostgresStore(components.DB, log)
	case "redis":
		blobStore = blob.NewRedisStore(components.Redis, log)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	// Credentials
	anonCodec := auth.NewAnonTokenCodec(cfg.Auth.AnonSecret, cfg.Auth.AnonTokenTTL)
	sessions := auth.NewSessionStore(components.Redis, cfg.Auth.SessionTTL)

	// Pipeline (fixed step order: normalize, remove background, flip)
	pipe, err := pipeline.New(log,
		pipeline.NewNormalizeFormat(),
		pipeline.NewRemoveBackground(cfg.BackgroundRemoval, log),
		pipeline.NewFlipHorizontal(),
	)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	log.Info("pipeline configured", "steps", pipe.Steps())

	// Services (bottom-up: dependencies first)
	identityService := service.NewIdentityService(components.DB.Pool, identityRepo, imageRepo, log)
	imageService := service.NewImageService(imageRepo, blobStore, pipe, log)

	// Identity resolution, merging on every request where both
	// credentials verify
	resolver := auth.NewResolver(sessions, anonCodec, identityRepo, identityService, log)

	// Handlers
	imageHandler := handlers.NewImageHandler(imageService, identityService, anonCodec, cfg, log)
	authHandler := handlers.NewAuthHandler(identityService, sessions, cfg, log)

	return &Container{
		Components:      components,
		IdentityRepo:    identityRepo,
		ImageRepo:       imageRepo,
		BlobStore:       blobStore,
		AnonCodec:       anonCodec,
		Sessions:        sessions,
		Resolver:        resolver,
		IdentityService: identityService,
		ImageService:    imageService,
		ImageHandler:    imageHandler,
		AuthHandler:     authHandler,
	}, nil
}
