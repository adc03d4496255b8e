package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dendrotool/dendro/pkg/export"
)

func testDocument() export.Document {
	return export.Document{Nodes: []export.NodeRecord{
		{Name: "R", Level: 0, Children: []string{"A", "B"}},
		{Name: "A", Level: 1, Ancestors: []string{"R"}},
		{Name: "B", Level: 1, Ancestors: []string{"R"}},
	}}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer s.Close()

	id, err := s.Save(ctx, "human cortex", testDocument())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty ID")
	}

	doc, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("Load returned %d nodes, want 3", len(doc.Nodes))
	}
	tree, _, err := doc.Tree()
	if err != nil {
		t.Fatalf("rebuild loaded tree: %v", err)
	}
	if root := tree.Root(); root.Name() != "R" {
		t.Errorf("root = %s, want R", root.Name())
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if metas, err := s.List(ctx); err != nil || len(metas) != 0 {
		t.Fatalf("List on empty store = %v, %v", metas, err)
	}

	first, err := s.Save(ctx, "first", testDocument())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(ctx, "second", testDocument())
	if err != nil {
		t.Fatal(err)
	}

	metas, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(metas))
	}
	ids := map[string]bool{metas[0].ID: true, metas[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Errorf("List IDs = %v, want %s and %s", ids, first, second)
	}
	for _, m := range metas {
		if m.Nodes != 3 {
			t.Errorf("meta %s node count = %d, want 3", m.ID, m.Nodes)
		}
	}
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load of missing ID = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete of missing ID = %v, want ErrNotFound", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	id, err := s.Save(ctx, "doomed", testDocument())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Delete = %v, want ErrNotFound", err)
	}
}
