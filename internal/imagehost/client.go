// Package imagehost talks to the service that stores the image bytes.
package imagehost

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"imagesapi/internal/config"
)

// Payload is the body sent upstream. Empty fields were not supplied and are
// omitted from the request.
type Payload struct {
	Data        string `json:"data,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Image is what the host reports about a stored object.
type Image struct {
	ID          string `json:"id"`
	ImageURL    string `json:"imageUrl"`
	ContentType string `json:"contentType"`
}

// Client is implemented by every image host driver. Replace and Patch return
// nil when the host did not report a new id and url.
type Client interface {
	Create(ctx context.Context, p Payload) (*Image, error)
	Replace(ctx context.Context, id string, p Payload) (*Image, error)
	Patch(ctx context.Context, id string, p Payload) (*Image, error)
	Delete(ctx context.Context, id string) error
}

// StatusError is returned when the host answers with an error status.
// Message is the vendor text and is only meant for logs.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image host responded %d: %s", e.StatusCode, e.Message)
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Client, error) {
	switch cfg.Upstream.Driver {
	case config.UpstreamDriverS3:
		return NewS3Client(ctx, &cfg.S3, log)
	case config.UpstreamDriverHTTP:
		return NewHTTPClient(&cfg.Upstream, log), nil
	default:
		return nil, fmt.Errorf("unknown upstream driver %q", cfg.Upstream.Driver)
	}
}
