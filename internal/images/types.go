package images

import "time"

// Accepted content types for stored images.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
)

// Field length bounds, mirrored by the database schema.
const (
	MaxLocationLen    = 500
	MaxDescriptionLen = 2000
)

// ValidContentType reports whether ct is one of the accepted image content types.
func ValidContentType(ct string) bool {
	switch ct {
	case ContentTypeJPEG, ContentTypePNG, ContentTypeGIF:
		return true
	}
	return false
}

// Image is the local metadata record for an image held by the remote store.
// ID and ImageURL are assigned by the remote service and are each unique.
type Image struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"imageUrl"`
	ContentType string    `json:"contentType"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest is the body for POST /images. Data is the base64-encoded
// binary payload forwarded to the remote store.
type CreateRequest struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateRequest is the body for PUT and PATCH. Pointers distinguish an absent
// field from an explicitly empty one.
type UpdateRequest struct {
	Data        *string `json:"data"`
	ContentType *string `json:"contentType"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// HasAny reports whether at least one mutable field is supplied.
func (r UpdateRequest) HasAny() bool {
	return r.Data != nil || r.ContentType != nil || r.Location != nil || r.Description != nil
}

// Complete reports whether every mutable field is supplied (PUT semantics).
func (r UpdateRequest) Complete() bool {
	return r.Data != nil && r.ContentType != nil && r.Location != nil && r.Description != nil
}
