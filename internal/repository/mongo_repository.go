package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"imagesapi/internal/config"
	"imagesapi/internal/domain"
)

type imageDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	ImageURL    string        `bson:"imageUrl"`
	ImageID     string        `bson:"imageId"`
	Description string        `bson:"description,omitempty"`
	Location    string        `bson:"location,omitempty"`
	Owner       string        `bson:"owner"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func toDocument(img domain.Image) (imageDocument, error) {
	doc := imageDocument{
		ImageURL:    img.ImageURL,
		ImageID:     img.UpstreamImageID,
		Description: img.Description,
		Location:    img.Location,
		Owner:       img.Owner,
		CreatedAt:   img.CreatedAt,
		UpdatedAt:   img.UpdatedAt,
	}
	if img.ID != "" {
		oid, err := bson.ObjectIDFromHex(img.ID)
		if err != nil {
			return imageDocument{}, fmt.Errorf("invalid image id %q: %w", img.ID, err)
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d imageDocument) toDomain() domain.Image {
	return domain.Image{
		ID:              d.ID.Hex(),
		ImageURL:        d.ImageURL,
		UpstreamImageID: d.ImageID,
		Description:     d.Description,
		Location:        d.Location,
		Owner:           d.Owner,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

type mongoImageRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *zap.Logger
}

func NewMongoImageRepository(ctx context.Context, cfg *config.StoreConfig, log *zap.Logger) (ImageRepository, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := &mongoImageRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		log:        log,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure image indexes", zap.Error(err))
	}

	log.Info("Connected to mongo",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return repo, nil
}

func (r *mongoImageRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	return err
}

func (r *mongoImageRepository) FindByID(ctx context.Context, id string) (domain.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids cannot exist in the collection.
		return domain.Image{}, ErrNotFound
	}

	var doc imageDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Image{}, ErrNotFound
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("find image %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (r *mongoImageRepository) FindByOwner(ctx context.Context, owner string) ([]domain.Image, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}

	var docs []imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}

	images := make([]domain.Image, 0, len(docs))
	for _, doc := range docs {
		images = append(images, doc.toDomain())
	}
	return images, nil
}

func (r *mongoImageRepository) Create(ctx context.Context, img domain.Image) (domain.Image, error) {
	ts := now()
	img.ID = bson.NewObjectID().Hex()
	img.CreatedAt = ts
	img.UpdatedAt = ts

	doc, err := toDocument(img)
	if err != nil {
		return domain.Image{}, err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.log.Error("Failed to insert image", zap.Error(err))
		return domain.Image{}, fmt.Errorf("insert image: %w", err)
	}

	r.log.Info("Image record created",
		zap.String("id", img.ID),
		zap.String("owner", img.Owner))

	return img, nil
}

func (r *mongoImageRepository) Save(ctx context.Context, img domain.Image) (domain.Image, error) {
	img.UpdatedAt = now()

	doc, err := toDocument(img)
	if err != nil {
		return domain.Image{}, err
	}

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		r.log.Error("Failed to save image", zap.String("id", img.ID), zap.Error(err))
		return domain.Image{}, fmt.Errorf("save image %s: %w", img.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.Image{}, ErrNotFound
	}

	r.log.Info("Image record saved", zap.String("id", img.ID))
	return img, nil
}

func (r *mongoImageRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.log.Error("Failed to delete image", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete image %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	r.log.Info("Image record deleted", zap.String("id", id))
	return nil
}

func (r *mongoImageRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
