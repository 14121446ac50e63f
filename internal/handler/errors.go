package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagesapi/internal/domain"
)

// respondError writes the single JSON error body for a request and aborts
// the handler chain. Only the public message reaches the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := domain.KindOf(err).Status()

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	}
	if status >= 500 {
		h.log.Error("Request failed", fields...)
	} else {
		h.log.Info("Request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"status": status,
		"error":  domain.PublicMessage(err),
	})
}
