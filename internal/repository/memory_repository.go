package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"imagesapi/internal/domain"
)

// memoryImageRepository keeps records in process. Ids use the same ObjectID
// hex format as the mongo driver.
type memoryImageRepository struct {
	mu     sync.RWMutex
	images map[string]domain.Image
	order  []string
}

func NewMemoryImageRepository() ImageRepository {
	return &memoryImageRepository{images: make(map[string]domain.Image)}
}

func (r *memoryImageRepository) FindByID(_ context.Context, id string) (domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img, ok := r.images[id]
	if !ok {
		return domain.Image{}, ErrNotFound
	}
	return img, nil
}

func (r *memoryImageRepository) FindByOwner(_ context.Context, owner string) ([]domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	images := make([]domain.Image, 0)
	for _, id := range r.order {
		if img := r.images[id]; img.Owner == owner {
			images = append(images, img)
		}
	}
	return images, nil
}

func (r *memoryImageRepository) Create(_ context.Context, img domain.Image) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	img.ID = bson.NewObjectID().Hex()
	img.CreatedAt = ts
	img.UpdatedAt = ts

	r.images[img.ID] = img
	r.order = append(r.order, img.ID)
	return img, nil
}

func (r *memoryImageRepository) Save(_ context.Context, img domain.Image) (domain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.images[img.ID]
	if !ok {
		return domain.Image{}, ErrNotFound
	}
	img.CreatedAt = existing.CreatedAt
	img.UpdatedAt = now()
	r.images[img.ID] = img
	return img, nil
}

func (r *memoryImageRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return ErrNotFound
	}
	delete(r.images, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryImageRepository) Close(context.Context) error {
	return nil
}
