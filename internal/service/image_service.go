package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"imagesapi/internal/domain"
	"imagesapi/internal/imagehost"
	"imagesapi/internal/repository"
	"imagesapi/internal/validation"
)

// ImageService runs the per-verb workflows for the images resource. Each
// workflow validates first, then talks to the image host, then writes the
// metadata store. No step is retried and the two stores are not committed
// atomically.
type ImageService interface {
	List(ctx context.Context, identity domain.Identity) ([]domain.Image, error)
	Resolve(ctx context.Context, id string) (domain.Image, error)
	Authorize(identity domain.Identity, img domain.Image) error
	Create(ctx context.Context, identity domain.Identity, payload domain.ImagePayload) (domain.CreatedImage, error)
	Replace(ctx context.Context, img domain.Image, payload domain.ImagePayload) error
	Patch(ctx context.Context, img domain.Image, payload domain.ImagePayload) error
	Delete(ctx context.Context, img domain.Image) error
}

type imageService struct {
	repo      repository.ImageRepository
	host      imagehost.Client
	validator *validation.Validator
	log       *zap.Logger
}

func NewImageService(repo repository.ImageRepository, host imagehost.Client, validator *validation.Validator, log *zap.Logger) ImageService {
	return &imageService{
		repo:      repo,
		host:      host,
		validator: validator,
		log:       log,
	}
}

func (s *imageService) List(ctx context.Context, identity domain.Identity) ([]domain.Image, error) {
	images, err := s.repo.FindByOwner(ctx, identity.Owner)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (s *imageService) Resolve(ctx context.Context, id string) (domain.Image, error) {
	img, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Image{}, domain.NotFoundError(err)
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("load image %s: %w", id, err)
	}
	return img, nil
}

func (s *imageService) Authorize(identity domain.Identity, img domain.Image) error {
	if identity.Owner == "" || identity.Owner != img.Owner {
		return domain.AuthorizationError()
	}
	return nil
}

func (s *imageService) Create(ctx context.Context, identity domain.Identity, payload domain.ImagePayload) (domain.CreatedImage, error) {
	p, err := s.validator.Validate(http.MethodPost, payload)
	if err != nil {
		return domain.CreatedImage{}, err
	}

	uploaded, err := s.host.Create(ctx, imagehost.Payload{
		Data:        domain.StringValue(p.Data),
		ContentType: domain.StringValue(p.ContentType),
	})
	if err != nil {
		return domain.CreatedImage{}, s.upstreamFailure("create", "", err)
	}

	if err := checkImageURL(uploaded.ImageURL); err != nil {
		s.log.Error("Image host returned an unusable url; upstream object left orphaned",
			zap.String("upstream_id", uploaded.ID),
			zap.Error(err))
		return domain.CreatedImage{}, domain.UpstreamError(err)
	}

	img, err := s.repo.Create(ctx, domain.Image{
		ImageURL:        uploaded.ImageURL,
		UpstreamImageID: uploaded.ID,
		Description:     domain.StringValue(p.Description),
		Location:        domain.StringValue(p.Location),
		Owner:           identity.Owner,
	})
	if err != nil {
		s.log.Error("Failed to persist image after upstream create",
			zap.String("upstream_id", uploaded.ID),
			zap.Error(err))
		return domain.CreatedImage{}, fmt.Errorf("create image: %w", err)
	}

	contentType := uploaded.ContentType
	if contentType == "" {
		contentType = domain.StringValue(p.ContentType)
	}

	s.log.Info("Image created",
		zap.String("id", img.ID),
		zap.String("owner", img.Owner))

	return domain.CreatedImage{
		ImageURL:    img.ImageURL,
		ContentType: contentType,
		CreatedAt:   img.CreatedAt,
		UpdatedAt:   img.UpdatedAt,
		ID:          img.ID,
	}, nil
}

func (s *imageService) Replace(ctx context.Context, img domain.Image, payload domain.ImagePayload) error {
	p, err := s.validator.Validate(http.MethodPut, payload)
	if err != nil {
		return err
	}

	updated, err := s.host.Replace(ctx, img.UpstreamImageID, imagehost.Payload{
		Data:        domain.StringValue(p.Data),
		ContentType: domain.StringValue(p.ContentType),
	})
	if err != nil {
		return s.upstreamFailure("replace", img.ID, err)
	}
	if updated != nil {
		if err := checkImageURL(updated.ImageURL); err != nil {
			s.log.Error("Image host returned an unusable url; upstream object left orphaned",
				zap.String("id", img.ID),
				zap.String("upstream_id", updated.ID),
				zap.Error(err))
			return domain.UpstreamError(err)
		}
		img.SetUpstream(updated.ID, updated.ImageURL)
	}

	img.Description = domain.StringValue(p.Description)
	img.Location = domain.StringValue(p.Location)

	if _, err := s.save(ctx, img); err != nil {
		return err
	}

	s.log.Info("Image replaced", zap.String("id", img.ID))
	return nil
}

// Patch applies the binary half upstream and the descriptive half locally,
// independently of each other. When the upstream half fails the local half
// is still written and the upstream failure is returned.
func (s *imageService) Patch(ctx context.Context, img domain.Image, payload domain.ImagePayload) error {
	p, err := s.validator.Validate(http.MethodPatch, payload)
	if err != nil {
		return err
	}

	var upstreamErr error
	binaryChanged := false
	if p.HasBinary() {
		updated, err := s.host.Patch(ctx, img.UpstreamImageID, imagehost.Payload{
			Data:        domain.StringValue(p.Data),
			ContentType: domain.StringValue(p.ContentType),
		})
		switch {
		case err != nil:
			upstreamErr = s.upstreamFailure("patch", img.ID, err)
		case updated == nil:
			binaryChanged = true
		default:
			if urlErr := checkImageURL(updated.ImageURL); urlErr != nil {
				s.log.Error("Image host returned an unusable url; upstream object left orphaned",
					zap.String("id", img.ID),
					zap.String("upstream_id", updated.ID),
					zap.Error(urlErr))
				upstreamErr = domain.UpstreamError(urlErr)
				break
			}
			img.SetUpstream(updated.ID, updated.ImageURL)
			binaryChanged = true
		}
	}

	if p.Description != nil {
		img.Description = *p.Description
	}
	if p.Location != nil {
		img.Location = *p.Location
	}

	if !binaryChanged && !p.HasFields() {
		if upstreamErr != nil {
			return upstreamErr
		}
		return domain.ValidationError(validation.MsgNothingToUpdate)
	}

	if _, err := s.save(ctx, img); err != nil {
		return err
	}

	if upstreamErr != nil {
		s.log.Warn("Image patched partially; local fields saved, upstream update failed",
			zap.String("id", img.ID))
		return upstreamErr
	}

	s.log.Info("Image patched",
		zap.String("id", img.ID),
		zap.Bool("binary", binaryChanged),
		zap.Bool("fields", p.HasFields()))
	return nil
}

// Delete removes the upstream object first; the record is only removed
// once that succeeded. An object the host no longer knows counts as deleted.
func (s *imageService) Delete(ctx context.Context, img domain.Image) error {
	if err := s.host.Delete(ctx, img.UpstreamImageID); err != nil {
		if !isUpstreamNotFound(err) {
			return s.upstreamFailure("delete", img.ID, err)
		}
		s.log.Warn("Upstream object already gone; removing record",
			zap.String("id", img.ID),
			zap.String("upstream_id", img.UpstreamImageID))
	}

	err := s.repo.Delete(ctx, img.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFoundError(err)
	}
	if err != nil {
		s.log.Error("Upstream object deleted but record removal failed",
			zap.String("id", img.ID),
			zap.String("upstream_id", img.UpstreamImageID),
			zap.Error(err))
		return fmt.Errorf("delete image %s: %w", img.ID, err)
	}

	s.log.Info("Image deleted", zap.String("id", img.ID))
	return nil
}

func (s *imageService) save(ctx context.Context, img domain.Image) (domain.Image, error) {
	saved, err := s.repo.Save(ctx, img)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Image{}, domain.NotFoundError(err)
	}
	if err != nil {
		return domain.Image{}, fmt.Errorf("save image %s: %w", img.ID, err)
	}
	return saved, nil
}

// upstreamFailure logs the vendor status and message and hides them from
// the caller. Transport failures stay unexpected errors.
func (s *imageService) upstreamFailure(op, id string, err error) error {
	var statusErr *imagehost.StatusError
	if errors.As(err, &statusErr) {
		s.log.Error("Image host rejected request",
			zap.String("op", op),
			zap.String("id", id),
			zap.Int("upstream_status", statusErr.StatusCode),
			zap.String("upstream_message", statusErr.Message))
		return domain.UpstreamError(err)
	}

	s.log.Error("Image host request failed",
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err))
	return fmt.Errorf("image host %s: %w", op, err)
}

func isUpstreamNotFound(err error) bool {
	var statusErr *imagehost.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func checkImageURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid image url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("image url %q is not absolute", raw)
	}
	return nil
}
