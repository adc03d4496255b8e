package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dendrotool/dendro/pkg/cache"
	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
)

func testServer(t *testing.T) *server {
	t.Helper()
	doc, err := dendro.ReadDocument(strings.NewReader(testDendrogram))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := dendro.Build(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.ComputeDescendants(); err != nil {
		t.Fatal(err)
	}
	return &server{
		tree:   tree,
		doc:    export.FromTree(tree, nil),
		logger: log.New(io.Discard),
	}
}

func TestServeRoutes(t *testing.T) {
	s := testServer(t)
	h := s.router(cache.NewNullCache(), time.Minute)

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/tree", http.StatusOK},
		{"/nodes", http.StatusOK},
		{"/nodes/A", http.StatusOK},
		{"/nodes/A/ancestors", http.StatusOK},
		{"/nodes/A/descendants", http.StatusOK},
		{"/nodes/missing", http.StatusNotFound},
		{"/levels/1", http.StatusOK},
		{"/levels/x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			}
		})
	}
}

func TestServeNode(t *testing.T) {
	s := testServer(t)
	h := s.router(cache.NewNullCache(), time.Minute)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes/A", nil))

	var node export.NodeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if node.Name != "A" || node.Level != 1 {
		t.Errorf("node = %+v, want A at level 1", node)
	}
	if len(node.Descendants) != 2 {
		t.Errorf("A has %d descendants, want 2", len(node.Descendants))
	}
}

func TestServeCacheHit(t *testing.T) {
	s := testServer(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	h := s.router(c, time.Minute)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/nodes", nil))
	if first.Header().Get("X-Cache") != "" {
		t.Error("first request should not be a cache hit")
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/nodes", nil))
	if second.Header().Get("X-Cache") != "hit" {
		t.Error("second request should be a cache hit")
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached body differs from fresh body")
	}
}

func TestServeErrorsNotCached(t *testing.T) {
	s := testServer(t)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	h := s.router(c, time.Minute)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nodes/missing", nil))
		if rec.Header().Get("X-Cache") == "hit" {
			t.Error("404 response served from cache")
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	}
}
