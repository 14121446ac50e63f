// Package validation checks image request bodies before any upstream call
// or store write is attempted.
package validation

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"imagesapi/internal/domain"
)

const (
	MsgMissingBinary      = "Data and/or content type not provided."
	MsgInvalidBase64      = "The provided data must be base64 encoded."
	MsgInvalidContentType = "The provided content type is not valid."
	MsgNothingToUpdate    = "Nothing to update."
	MsgUnsupportedMethod  = "The request method is not supported for this resource."
)

var AllowedContentTypes = []string{"image/gif", "image/jpeg", "image/png"}

type Validator struct {
	validate *validator.Validate
}

// New builds a Validator. With loose set, any syntactically valid MIME type
// is accepted instead of the image allow-list.
func New(loose bool) (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	check := allowedContentType
	if loose {
		check = wellFormedContentType
	}
	err := v.RegisterValidation("content_type", func(fl validator.FieldLevel) bool {
		return check(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register content_type rule: %w", err)
	}
	return &Validator{validate: v}, nil
}

// Validate returns the normalized payload to act on, or a validation error.
// Empty data and contentType are treated as not supplied.
func (v *Validator) Validate(method string, p domain.ImagePayload) (domain.ImagePayload, error) {
	if p.Data != nil && *p.Data == "" {
		p.Data = nil
	}
	if p.ContentType != nil && *p.ContentType == "" {
		p.ContentType = nil
	}

	switch method {
	case http.MethodPost, http.MethodPut:
		if p.Data == nil || p.ContentType == nil {
			return domain.ImagePayload{}, domain.ValidationError(MsgMissingBinary)
		}
	case http.MethodPatch:
		if !p.HasBinary() && !p.HasFields() {
			return domain.ImagePayload{}, domain.ValidationError(MsgNothingToUpdate)
		}
	default:
		return domain.ImagePayload{}, domain.ValidationError(MsgUnsupportedMethod)
	}

	if err := v.validate.Struct(p); err != nil {
		return domain.ImagePayload{}, domain.ValidationError(messageFor(err))
	}
	return p, nil
}

func messageFor(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return MsgInvalidContentType
	}
	switch fieldErrs[0].Field() {
	case "Data":
		return MsgInvalidBase64
	default:
		return MsgInvalidContentType
	}
}

func allowedContentType(ct string) bool {
	for _, allowed := range AllowedContentTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

func wellFormedContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && strings.Contains(mt, "/")
}
