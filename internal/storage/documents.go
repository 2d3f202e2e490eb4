// Package storage is the opaque blob store for uploaded documents.
// Callers only ever hold the reference string it hands out.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/application-tracker/pkg/util"
)

// DocumentStore persists uploaded documents on the local filesystem.
type DocumentStore struct {
	dir string
}

// NewDocumentStore ensures the storage directory exists.
func NewDocumentStore(dir string) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &DocumentStore{dir: dir}, nil
}

// Store writes the document and returns a stable reference. The
// reference embeds the original name with a uuid suffix so repeated
// uploads of the same filename never collide.
func (s *DocumentStore) Store(data []byte, originalName string) (string, error) {
	base := filepath.Base(originalName)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" || name == "." {
		name = "document"
	}

	ref := fmt.Sprintf("%s_%s%s", name, uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	return ref, nil
}

// Fetch reads a stored document back by reference.
func (s *DocumentStore) Fetch(ref string) ([]byte, error) {
	// Refs are single path segments; anything else is someone probing.
	if ref == "" || ref != filepath.Base(ref) || strings.Contains(ref, "..") {
		return nil, apperrors.NewNotFound("document", map[string]any{"ref": ref})
	}

	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("document", map[string]any{"ref": ref})
		}
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return data, nil
}
