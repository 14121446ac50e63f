package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"imagesapi/internal/domain"
)

const (
	identityKey     = "identity"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	maxRequestIDLen = 128
)

var errNoIdentity = errors.New("request reached an image route without an identity")

// ImageRequest is what an id-scoped handler receives once the path id has
// resolved to a record owned by the caller.
type ImageRequest struct {
	Identity domain.Identity
	Image    domain.Image
}

type imageHandlerFunc func(c *gin.Context, req ImageRequest)

// Authenticate verifies the bearer token and stores the identity for the
// rest of the chain.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.verifier.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

// withImage resolves :id and checks ownership before next runs. next is
// only reachable with a loaded, owned record.
func (h *Handler) withImage(next imageHandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFrom(c)
		if !ok {
			h.respondError(c, domain.AuthenticationError(errNoIdentity))
			return
		}

		img, err := h.service.Resolve(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		if err := h.service.Authorize(identity, img); err != nil {
			h.respondError(c, err)
			return
		}

		next(c, ImageRequest{Identity: identity, Image: img})
	}
}

// RequestID propagates X-Request-ID or assigns a new one. Ids that are too
// long or carry characters outside [A-Za-z0-9._:-] are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}

// BodyLimit caps the request body; reads beyond limit fail.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// Recovery turns a panic into the generic 500 error body.
func (h *Handler) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		h.respondError(c, fmt.Errorf("panic: %v", recovered))
	})
}
