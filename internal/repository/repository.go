package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imagesapi/internal/config"
	"imagesapi/internal/domain"
)

var ErrNotFound = errors.New("image not found")

// ImageRepository persists image metadata records. The store assigns ids and
// maintains CreatedAt and UpdatedAt.
type ImageRepository interface {
	FindByID(ctx context.Context, id string) (domain.Image, error)
	FindByOwner(ctx context.Context, owner string) ([]domain.Image, error)
	Create(ctx context.Context, img domain.Image) (domain.Image, error)
	Save(ctx context.Context, img domain.Image) (domain.Image, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

func New(ctx context.Context, cfg *config.StoreConfig, log *zap.Logger) (ImageRepository, error) {
	switch cfg.Driver {
	case config.StoreDriverMongo:
		return NewMongoImageRepository(ctx, cfg, log)
	case config.StoreDriverMemory:
		log.Warn("Using in-memory image store; records are lost on restart")
		return NewMemoryImageRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// now matches the millisecond precision of stored BSON dates.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
