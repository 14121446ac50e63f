package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagesapi/internal/domain"
	"imagesapi/internal/service"
)

// Authenticator turns an Authorization header into an identity.
type Authenticator interface {
	Authenticate(header string) (domain.Identity, error)
}

type Handler struct {
	service  service.ImageService
	verifier Authenticator
	log      *zap.Logger
}

func NewHandler(service service.ImageService, verifier Authenticator, log *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		log:      log,
	}
}

// RegisterImageRoutes mounts the images resource on rg.
func (h *Handler) RegisterImageRoutes(rg *gin.RouterGroup) {
	rg.Use(h.Authenticate())

	rg.GET("", h.ListImages)
	rg.POST("", h.CreateImage)
	rg.GET("/:id", h.withImage(h.GetImage))
	rg.PUT("/:id", h.withImage(h.ReplaceImage))
	rg.PATCH("/:id", h.withImage(h.PatchImage))
	rg.DELETE("/:id", h.withImage(h.DeleteImage))
}

func (h *Handler) ListImages(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		h.respondError(c, domain.AuthenticationError(errNoIdentity))
		return
	}

	images, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.ProjectAll(images))
}

func (h *Handler) CreateImage(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		h.respondError(c, domain.AuthenticationError(errNoIdentity))
		return
	}

	payload, err := h.bindPayload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), identity, payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetImage(c *gin.Context, req ImageRequest) {
	c.JSON(http.StatusOK, domain.Project(req.Image))
}

func (h *Handler) ReplaceImage(c *gin.Context, req ImageRequest) {
	payload, err := h.bindPayload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.service.Replace(c.Request.Context(), req.Image, payload); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) PatchImage(c *gin.Context, req ImageRequest) {
	payload, err := h.bindPayload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.service.Patch(c.Request.Context(), req.Image, payload); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteImage(c *gin.Context, req ImageRequest) {
	if err := h.service.Delete(c.Request.Context(), req.Image); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) NotFound(c *gin.Context) {
	h.respondError(c, domain.NotFoundError(nil))
}

// bindPayload decodes the JSON body. An empty body is an empty payload so
// the validator reports what is missing.
func (h *Handler) bindPayload(c *gin.Context) (domain.ImagePayload, error) {
	var payload domain.ImagePayload
	err := c.ShouldBindJSON(&payload)
	if err == nil || errors.Is(err, io.EOF) {
		return payload, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ImagePayload{}, &domain.Error{Kind: domain.KindValidation, Message: "The request body is too large.", Err: err}
	}
	return domain.ImagePayload{}, &domain.Error{Kind: domain.KindValidation, Message: "The request body must be a JSON object.", Err: err}
}
