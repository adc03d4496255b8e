package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dendrotool/dendro/pkg/export"
)

// FileStore keeps one JSON file per tree in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// fileDoc is the on-disk shape: metadata plus the serialized tree.
type fileDoc struct {
	Meta Meta            `json:"meta"`
	Tree export.Document `json:"tree"`
}

// NewFileStore creates a file-based tree store. If baseDir is empty it
// defaults to ~/.config/dendro/trees.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "dendro", "trees")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create tree dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) treePath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Save stores doc under a fresh UUID and returns it.
func (s *FileStore) Save(ctx context.Context, name string, doc export.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	wrapped := fileDoc{
		Meta: Meta{ID: id, Name: name, Nodes: len(doc.Nodes), CreatedAt: time.Now().UTC()},
		Tree: doc,
	}
	data, err := json.MarshalIndent(wrapped, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tree: %w", err)
	}
	if err := os.WriteFile(s.treePath(id), data, 0644); err != nil {
		return "", fmt.Errorf("write tree file: %w", err)
	}
	return id, nil
}

// Load retrieves a stored tree by ID.
func (s *FileStore) Load(ctx context.Context, id string) (export.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.treePath(id))
	if os.IsNotExist(err) {
		return export.Document{}, fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return export.Document{}, fmt.Errorf("read tree file: %w", err)
	}
	var wrapped fileDoc
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return export.Document{}, fmt.Errorf("parse tree %s: %w", id, err)
	}
	return wrapped.Tree, nil
}

// List returns metadata for all stored trees, newest first.
func (s *FileStore) List(ctx context.Context) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read tree dir: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var wrapped fileDoc
		if err := json.Unmarshal(data, &wrapped); err != nil {
			continue
		}
		metas = append(metas, wrapped.Meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Delete removes a stored tree.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.treePath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for tree files.
func (s *FileStore) Path() string { return s.baseDir }

var _ TreeStore = (*FileStore)(nil)
