// Package attachment stores receipt files referenced by transactions.
package attachment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var (
	ErrTooLarge    = fmt.Errorf("%w: attachment is too large", apperr.ErrInvalid)
	ErrUnsupported = fmt.Errorf("%w: attachment must be an image or a PDF", apperr.ErrInvalid)
)

var allowed = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs r, writes it under the store directory and returns the
// generated file name, which is what transactions keep as their attachment.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading attachment: %w", err)
	}

	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowed...) {
		return "", fmt.Errorf("%w, got %s", ErrUnsupported, mtype.String())
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	name := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing attachment: %w", err)
	}

	slog.InfoContext(ctx, "attachment stored", "name", name, "mime", mtype.String(), "size", len(data))

	return name, nil
}
