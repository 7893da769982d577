// Package uploads stores visitor photos and identity documents on disk
// and hands back publicly resolvable URLs. Retention and deletion are
// out of scope; only the returned URL string is persisted on records.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kinds of blobs stored under a visitor
const (
	KindPhoto    = "photos"
	KindDocument = "documents"
)

// Store writes blobs under dir and builds URLs under baseURL/uploads
type Store struct {
	dir     string
	baseURL string
}

// New creates the upload store, making sure the root directory exists
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root the HTTP layer serves as /uploads/
func (s *Store) Dir() string {
	return s.dir
}

// Save streams one blob to visitors/{visitorId}/{kind}/{uuid}.{ext} and
// returns its public URL
func (s *Store) Save(visitorID, kind, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	rel := filepath.Join("visitors", visitorID, kind, uuid.NewString()+ext)

	full := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/uploads/" + filepath.ToSlash(rel), nil
}
