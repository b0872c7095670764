package media

import (
	"context"
	"time"

	"backend-storymap/internal/db"

	"github.com/google/uuid"
)

const KindAdventurePhoto = "adventure_photo"

type Object struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger records every durable upload so uploads that never made it into a
// photo record can be found later.
type Ledger struct {
	db db.Querier
}

func NewLedger(db db.Querier) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Record(ctx context.Context, userID, url, kind string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.Exec(ctx, `
		INSERT INTO media_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Issued reports whether url was uploaded by userID.
func (l *Ledger) Issued(ctx context.Context, userID, url string) (bool, error) {
	var found bool
	err := l.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM media_objects WHERE user_id = $1 AND url = $2)
	`, userID, url).Scan(&found)
	return found, err
}

// Orphans lists a user's adventure photo uploads with no photo record.
func (l *Ledger) Orphans(ctx context.Context, userID string) ([]Object, error) {
	rows, err := l.db.Query(ctx, `
		SELECT m.id, m.user_id, m.url, m.kind, m.created_at
		FROM media_objects m
		WHERE m.user_id = $1 AND m.kind = $2
		  AND NOT EXISTS (SELECT 1 FROM adventure_photos p WHERE p.image_url = m.url)
		ORDER BY m.created_at DESC
	`, userID, KindAdventurePhoto)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objects := []Object{}
	for rows.Next() {
		var o Object
		if err := rows.Scan(&o.ID, &o.UserID, &o.URL, &o.Kind, &o.CreatedAt); err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}
