package imagestore

// CreateRequest is the JSON body for creating or replacing a remote image.
// Data is the base64-encoded binary payload.
type CreateRequest struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

// Resource is the remote service's representation of a stored image.
type Resource struct {
	ID          string `json:"id"`
	ImageURL    string `json:"imageUrl"`
	ContentType string `json:"contentType"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}
