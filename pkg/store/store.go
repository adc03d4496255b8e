// Package store persists parsed dendrogram trees.
//
// Two backends implement [TreeStore]: a file store for single-user CLI
// workflows (one JSON document per tree under the user's config directory)
// and a Mongo store for shared deployments. Trees are stored in their flat
// serialized form (see the export package); callers rebuild the in-memory
// table with [export.Document.Tree] after loading.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dendrotool/dendro/pkg/export"
)

// ErrNotFound is returned when no stored tree matches the requested ID.
var ErrNotFound = errors.New("tree not found")

// Meta describes a stored tree without its node table.
type Meta struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TreeStore is the interface for tree persistence backends.
type TreeStore interface {
	// Save stores doc under a freshly generated ID and returns that ID.
	Save(ctx context.Context, name string, doc export.Document) (string, error)

	// Load retrieves a stored tree by ID.
	// Returns ErrNotFound if no such tree exists.
	Load(ctx context.Context, id string) (export.Document, error)

	// List returns metadata for every stored tree, newest first.
	List(ctx context.Context) ([]Meta, error)

	// Delete removes a stored tree.
	// Returns ErrNotFound if no such tree exists.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}
