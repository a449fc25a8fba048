package images

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/picrelay/picrelay/internal/db"
)

// Errors returned by image stores.
var (
	// ErrNotFound is returned when no record matches the given id.
	ErrNotFound = errors.New("image not found")
	// ErrDuplicate is returned when a record with the same id or image URL
	// already exists.
	ErrDuplicate = errors.New("image already exists")
)

// Store persists image metadata records.
type Store interface {
	Insert(ctx context.Context, img Image) error
	Get(ctx context.Context, id string) (Image, error)
	List(ctx context.Context) ([]Image, error)
	Update(ctx context.Context, img Image) error
	Delete(ctx context.Context, id string) error
}

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed image store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert stores a new image record.
func (s *PostgresStore) Insert(ctx context.Context, img Image) error {
	if s.pool == nil {
		return errors.New("image store pool not configured")
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO images (id, image_url, content_type, location, description, owner_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		img.ID,
		img.ImageURL,
		img.ContentType,
		db.TextFromString(img.Location),
		db.TextFromString(img.Description),
		img.OwnerID,
		img.CreatedAt,
		img.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, img.ID)
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// Get returns the image record with the given id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Image, error) {
	if s.pool == nil {
		return Image{}, errors.New("image store pool not configured")
	}
	row := s.pool.QueryRow(ctx, `
SELECT id, image_url, content_type, location, description, owner_id, created_at, updated_at
FROM images WHERE id = $1`, id)
	img, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Image{}, ErrNotFound
		}
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

// List returns all image records ordered by creation time.
func (s *PostgresStore) List(ctx context.Context) ([]Image, error) {
	if s.pool == nil {
		return nil, errors.New("image store pool not configured")
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, image_url, content_type, location, description, owner_id, created_at, updated_at
FROM images ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	items := make([]Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		items = append(items, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return items, nil
}

// Update persists the mutable fields of an existing record.
func (s *PostgresStore) Update(ctx context.Context, img Image) error {
	if s.pool == nil {
		return errors.New("image store pool not configured")
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE images
SET content_type = $2, location = $3, description = $4, updated_at = $5
WHERE id = $1`,
		img.ID,
		img.ContentType,
		db.TextFromString(img.Location),
		db.TextFromString(img.Description),
		img.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record with the given id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s.pool == nil {
		return errors.New("image store pool not configured")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanImage(row pgx.Row) (Image, error) {
	var (
		img                   Image
		location, description pgtype.Text
		createdAt, updatedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&img.ID, &img.ImageURL, &img.ContentType, &location, &description, &img.OwnerID, &createdAt, &updatedAt); err != nil {
		return Image{}, err
	}
	img.Location = db.TextToString(location)
	img.Description = db.TextToString(description)
	img.CreatedAt = db.TimeFromPg(createdAt)
	img.UpdatedAt = db.TimeFromPg(updatedAt)
	return img, nil
}
