package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagesapi/internal/auth"
	"imagesapi/internal/config"
	"imagesapi/internal/handler"
	"imagesapi/internal/imagehost"
	"imagesapi/internal/repository"
	"imagesapi/internal/service"
	"imagesapi/internal/validation"
)

type Server struct {
	httpServer *http.Server
	repo       repository.ImageRepository
	cfg        *config.Config
	log        *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	host, err := imagehost.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create image host client: %w", err)
	}

	repo, err := repository.New(ctx, &cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create image repository: %w", err)
	}

	validator, err := validation.New(cfg.Validation.LooseContentTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload validator: %w", err)
	}

	imageService := service.NewImageService(repo, host, validator, log)

	h := handler.NewHandler(imageService, verifier, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:        NewRouter(h, cfg, log),
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		repo: repo,
		cfg:  cfg,
		log:  log,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("upstream", cfg.Upstream.Driver))

	return server, nil
}

// NewRouter mounts the images resource both at /images and at the
// versioned /api/v1/images path.
func NewRouter(h *handler.Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		handler.RequestID(),
		handler.RequestLogger(log),
		h.Recovery(),
		handler.BodyLimit(cfg.Server.MaxBodyBytes),
	)

	router.GET("/health", h.HealthCheck)

	h.RegisterImageRoutes(router.Group("/images"))

	api := router.Group("/api/v1")
	{
		h.RegisterImageRoutes(api.Group("/images"))
	}

	router.NoRoute(h.NotFound)

	return router
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("host", s.cfg.Server.Host),
		zap.String("port", s.cfg.Server.Port),
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return errors.Join(
		s.httpServer.Shutdown(ctx),
		s.repo.Close(ctx),
	)
}
