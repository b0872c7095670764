package adventure

import (
	"context"
	"errors"

	"backend-storymap/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Records is the record store the flows run against. PostgresStore backs it
// on the server and the API client backs it in the CLI.
type Records interface {
	Create(ctx context.Context, a Adventure) (Adventure, error)
	Get(ctx context.Context, id string) (Adventure, error)
	List(ctx context.Context) ([]Adventure, error)
	Update(ctx context.Context, id, ownerID string, f Fields) (Adventure, error)
	Delete(ctx context.Context, id, ownerID string) error
	AddPhoto(ctx context.Context, adventureID, ownerID, imageURL string) (Photo, error)
	Photos(ctx context.Context, adventureID string) ([]Photo, error)
}

// MediaStore turns an image into a durable URL.
type MediaStore interface {
	Upload(ctx context.Context, userID, name string, data []byte) (string, error)
}

// Issuer is implemented by media stores that remember which URLs they handed
// out. RecordPhoto consults it before trusting a caller-supplied URL.
type Issuer interface {
	Issued(ctx context.Context, userID, url string) (bool, error)
}

// PostgresStore keeps adventures and photos in Postgres. Every mutation is
// scoped to the owner in SQL.
type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const adventureColumns = `a.id, a.owner_id, a.title, a.description, a.latitude, a.longitude,
		       COALESCE(NULLIF(a.cover_image, ''), (
		           SELECT p.image_url FROM adventure_photos p
		           WHERE p.adventure_id = a.id
		           ORDER BY p.created_at, p.id LIMIT 1
		       ), ''), a.created_at`

// Mutations select through adventureColumns so they report the same derived
// cover as Get.
const returningColumns = `RETURNING id, owner_id, title, description, latitude, longitude, cover_image, created_at
	)
	SELECT ` + adventureColumns + ` FROM a`

func (s *PostgresStore) Create(ctx context.Context, a Adventure) (Adventure, error) {
	row := s.db.QueryRow(ctx, `
		WITH a AS (
		INSERT INTO adventures (owner_id, title, description, latitude, longitude, cover_image)
		VALUES ($1,$2,$3,$4,$5,$6)
		`+returningColumns, a.OwnerID, a.Title, a.Description, a.Latitude, a.Longitude, a.CoverImage)
	return scanAdventure(row)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Adventure, error) {
	if uuid.Validate(id) != nil {
		return Adventure{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		SELECT `+adventureColumns+`
		FROM adventures a WHERE a.id=$1
	`, id)
	a, err := scanAdventure(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Adventure{}, ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) List(ctx context.Context) ([]Adventure, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+adventureColumns+`
		FROM adventures a
		ORDER BY a.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	adventures := []Adventure{}
	for rows.Next() {
		a, err := scanAdventure(rows)
		if err != nil {
			return nil, err
		}
		adventures = append(adventures, a)
	}
	return adventures, rows.Err()
}

// Update never touches owner_id or created_at. A nil CoverImage keeps the
// stored one.
func (s *PostgresStore) Update(ctx context.Context, id, ownerID string, f Fields) (Adventure, error) {
	if uuid.Validate(id) != nil {
		return Adventure{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `
		WITH a AS (
		UPDATE adventures
		SET title=$3, description=$4, latitude=$5, longitude=$6,
		    cover_image=COALESCE($7, cover_image)
		WHERE id=$1 AND owner_id=$2
		`+returningColumns, id, ownerID, f.Title, f.Description, f.Latitude, f.Longitude, f.CoverImage)
	a, err := scanAdventure(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Adventure{}, s.missReason(ctx, id)
	}
	return a, err
}

func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM adventures WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missReason(ctx, id)
	}
	return nil
}

// AddPhoto inserts only when ownerID owns the adventure.
func (s *PostgresStore) AddPhoto(ctx context.Context, adventureID, ownerID, imageURL string) (Photo, error) {
	if uuid.Validate(adventureID) != nil {
		return Photo{}, ErrNotFound
	}
	photo := Photo{ID: uuid.NewString()}
	row := s.db.QueryRow(ctx, `
		INSERT INTO adventure_photos (id, adventure_id, image_url)
		SELECT $1, a.id, $3 FROM adventures a
		WHERE a.id=$2 AND a.owner_id=$4
		RETURNING adventure_id, image_url, created_at
	`, photo.ID, adventureID, imageURL, ownerID)
	if err := row.Scan(&photo.AdventureID, &photo.ImageURL, &photo.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Photo{}, s.missReason(ctx, adventureID)
		}
		return Photo{}, err
	}
	return photo, nil
}

func (s *PostgresStore) Photos(ctx context.Context, adventureID string) ([]Photo, error) {
	if uuid.Validate(adventureID) != nil {
		return []Photo{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, adventure_id, image_url, created_at
		FROM adventure_photos WHERE adventure_id=$1
		ORDER BY created_at, id
	`, adventureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.AdventureID, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// missReason tells a missing row from one owned by someone else after an
// owner-scoped statement matched nothing.
func (s *PostgresStore) missReason(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM adventures WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNotOwner
}

func scanAdventure(row pgx.Row) (Adventure, error) {
	var a Adventure
	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Latitude, &a.Longitude, &a.CoverImage, &a.CreatedAt)
	return a, err
}
