package domain

import (
	"time"
)

// Image is the metadata record kept for one image hosted upstream.
// UpstreamImageID and Owner are bookkeeping fields and never leave the
// service; use Project to build the client-facing view.
type Image struct {
	ID              string
	ImageURL        string
	UpstreamImageID string
	Description     string
	Location        string
	Owner           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetUpstream replaces the pointer to the binary object. URL and id only
// ever change together.
func (i *Image) SetUpstream(upstreamID, imageURL string) {
	i.UpstreamImageID = upstreamID
	i.ImageURL = imageURL
}

type ImageView struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"imageUrl"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreatedImage is the body returned for a successful creation.
type CreatedImage struct {
	ImageURL    string    `json:"imageUrl"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ID          string    `json:"id"`
}

func Project(img Image) ImageView {
	return ImageView{
		ID:          img.ID,
		ImageURL:    img.ImageURL,
		Description: img.Description,
		Location:    img.Location,
		CreatedAt:   img.CreatedAt,
		UpdatedAt:   img.UpdatedAt,
	}
}

func ProjectAll(images []Image) []ImageView {
	views := make([]ImageView, 0, len(images))
	for _, img := range images {
		views = append(views, Project(img))
	}
	return views
}

// ImagePayload is the request body accepted by create, replace and patch.
// Nil fields were not supplied by the caller.
type ImagePayload struct {
	Data        *string `json:"data" validate:"omitempty,base64"`
	ContentType *string `json:"contentType" validate:"omitempty,content_type"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// HasBinary reports whether the payload touches the upstream object.
func (p ImagePayload) HasBinary() bool {
	return p.Data != nil || p.ContentType != nil
}

// HasFields reports whether the payload touches local-only fields.
func (p ImagePayload) HasFields() bool {
	return p.Description != nil || p.Location != nil
}

// Identity is the authenticated caller. Owner is the key compared against
// Image.Owner; which claim feeds it is a deployment setting.
type Identity struct {
	Owner           string
	Subject         string
	FirstName       string
	LastName        string
	Email           string
	PermissionLevel int
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
