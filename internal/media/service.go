package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNotImage  = errors.New("file is not an image")
)

type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Service is the media store: it checks the file, uploads it and records the
// resulting URL in the ledger.
type Service struct {
	uploader Uploader
	ledger   *Ledger
	maxBytes int
	logger   *slog.Logger
}

func NewService(uploader Uploader, ledger *Ledger, maxBytes int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uploader: uploader, ledger: ledger, maxBytes: maxBytes, logger: logger}
}

func (s *Service) Upload(ctx context.Context, userID, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return "", fmt.Errorf("file exceeds %d bytes", s.maxBytes)
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", ErrNotImage
	}

	url, err := s.uploader.Upload(ctx, name, data)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrNoURL
	}

	// The upload is durable at this point; a ledger miss only loses
	// orphan tracking.
	if s.ledger != nil {
		if _, err := s.ledger.Record(ctx, userID, url, KindAdventurePhoto); err != nil {
			s.logger.Warn("media ledger write failed", "url", url, "user_id", userID, "error", err)
		}
	}
	return url, nil
}

// Issued reports whether the ledger holds url for userID. Without a ledger
// nothing can be vouched for.
func (s *Service) Issued(ctx context.Context, userID, url string) (bool, error) {
	if s.ledger == nil {
		return false, nil
	}
	return s.ledger.Issued(ctx, userID, url)
}

func (s *Service) Orphans(ctx context.Context, userID string) ([]Object, error) {
	if s.ledger == nil {
		return []Object{}, nil
	}
	return s.ledger.Orphans(ctx, userID)
}
