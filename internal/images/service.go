// Package images holds the image metadata domain: records, persistence, and
// the reconciliation logic keeping local metadata in lockstep with the remote
// image store.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/picrelay/picrelay/internal/imagestore"
)

// ErrInvalidInput is returned when a request body is missing required fields
// or carries values outside the accepted bounds.
var ErrInvalidInput = errors.New("invalid input")

// Service orchestrates create, update, and delete operations across the
// remote image store and the local metadata store. Writes go remote-first:
// the local record is only touched after the remote call succeeds.
type Service struct {
	store   Store
	gateway imagestore.Gateway
	logger  *slog.Logger
}

// NewService creates an image service.
func NewService(log *slog.Logger, store Store, gateway imagestore.Gateway) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:   store,
		gateway: gateway,
		logger:  log.With(slog.String("service", "images")),
	}
}

// Create uploads the payload to the remote store and persists a metadata
// record under the id and URL the remote service assigned.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (Image, error) {
	if strings.TrimSpace(req.Data) == "" || strings.TrimSpace(req.ContentType) == "" {
		return Image{}, fmt.Errorf("%w: data and contentType are required", ErrInvalidInput)
	}
	if !ValidContentType(req.ContentType) {
		return Image{}, fmt.Errorf("%w: contentType must be one of image/jpeg, image/png, image/gif", ErrInvalidInput)
	}
	if err := checkBounds(req.Location, req.Description); err != nil {
		return Image{}, err
	}

	resource, err := s.gateway.Create(ctx, imagestore.CreateRequest{
		Data:        req.Data,
		ContentType: req.ContentType,
	})
	if err != nil {
		return Image{}, err
	}

	now := time.Now().UTC()
	img := Image{
		ID:          resource.ID,
		ImageURL:    resource.ImageURL,
		ContentType: req.ContentType,
		Location:    req.Location,
		Description: req.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, img); err != nil {
		s.logger.Error("remote image created but local insert failed",
			slog.String("id", img.ID), slog.Any("error", err))
		return Image{}, err
	}
	return img, nil
}

// Get returns the record with the given id. Every lookup failure, including
// store errors, collapses to ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Image, error) {
	img, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("image lookup failed", slog.String("id", id), slog.Any("error", err))
		}
		return Image{}, ErrNotFound
	}
	return img, nil
}

// List returns all image records.
func (s *Service) List(ctx context.Context) ([]Image, error) {
	return s.store.List(ctx)
}

// Replace performs a full update (PUT): all four mutable fields must be
// supplied. The remote binary is overwritten first, then the local record.
func (s *Service) Replace(ctx context.Context, img Image, req UpdateRequest) error {
	if !req.Complete() {
		missing := missingFields(req)
		return fmt.Errorf("%w: missing fields: %s (use PATCH for a partial update)", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return s.applyUpdate(ctx, img, req)
}

// Patch performs a partial update: at least one mutable field must be
// supplied. The remote binary is re-uploaded only when data is present.
func (s *Service) Patch(ctx context.Context, img Image, req UpdateRequest) error {
	if !req.HasAny() {
		return fmt.Errorf("%w: at least one of location, description, contentType or data must be supplied", ErrInvalidInput)
	}
	return s.applyUpdate(ctx, img, req)
}

func (s *Service) applyUpdate(ctx context.Context, img Image, req UpdateRequest) error {
	if req.Data != nil && strings.TrimSpace(*req.Data) == "" {
		return fmt.Errorf("%w: data must not be empty", ErrInvalidInput)
	}
	if req.ContentType != nil && !ValidContentType(*req.ContentType) {
		return fmt.Errorf("%w: contentType must be one of image/jpeg, image/png, image/gif", ErrInvalidInput)
	}
	location, description := img.Location, img.Description
	if req.Location != nil {
		location = *req.Location
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := checkBounds(location, description); err != nil {
		return err
	}

	contentType := img.ContentType
	if req.ContentType != nil {
		contentType = *req.ContentType
	}

	// Remote first, so a failed upload leaves the local record untouched.
	if req.Data != nil {
		err := s.gateway.Update(ctx, img.ID, imagestore.CreateRequest{
			Data:        *req.Data,
			ContentType: contentType,
		})
		if err != nil {
			return err
		}
	}

	img.ContentType = contentType
	img.Location = location
	img.Description = description
	img.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, img); err != nil {
		if req.Data != nil {
			s.logger.Error("remote image updated but local update failed",
				slog.String("id", img.ID), slog.Any("error", err))
		}
		return err
	}
	return nil
}

// Delete removes the remote resource and, only after the remote delete
// succeeds, the local record.
func (s *Service) Delete(ctx context.Context, img Image) error {
	if err := s.gateway.Delete(ctx, img.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, img.ID); err != nil {
		s.logger.Error("remote image deleted but local delete failed",
			slog.String("id", img.ID), slog.Any("error", err))
		return err
	}
	return nil
}

func checkBounds(location, description string) error {
	if len(location) > MaxLocationLen {
		return fmt.Errorf("%w: location exceeds %d characters", ErrInvalidInput, MaxLocationLen)
	}
	if len(description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, MaxDescriptionLen)
	}
	return nil
}

func missingFields(req UpdateRequest) []string {
	missing := make([]string, 0, 4)
	if req.Location == nil {
		missing = append(missing, "location")
	}
	if req.Description == nil {
		missing = append(missing, "description")
	}
	if req.ContentType == nil {
		missing = append(missing, "contentType")
	}
	if req.Data == nil {
		missing = append(missing, "data")
	}
	return missing
}
