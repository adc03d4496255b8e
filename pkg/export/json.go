package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dendrotool/dendro/pkg/dendro"
)

// MarshalTree converts a tree to JSON bytes. Nodes are sorted by name for
// deterministic output. counts may be nil.
func MarshalTree(t *dendro.Tree, counts dendro.Counts) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTreeTo(t, counts, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTree writes a tree as indented JSON to w.
func WriteTree(t *dendro.Tree, counts dendro.Counts, w io.Writer) error {
	return writeTreeTo(t, counts, w)
}

// WriteTreeFile writes a tree to a JSON file, overwriting any existing file.
func WriteTreeFile(t *dendro.Tree, counts dendro.Counts, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTreeTo(t, counts, f)
}

// ReadTree decodes a flat tree document from r, rebuilds the table and
// validates it. See [Document.Tree] for the restoration rules.
func ReadTree(r io.Reader) (*dendro.Tree, dendro.Counts, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	return doc.Tree()
}

// ReadTreeFile reads a flat tree JSON file and returns the rebuilt table.
func ReadTreeFile(path string) (*dendro.Tree, dendro.Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTree(f)
}

func writeTreeTo(t *dendro.Tree, counts dendro.Counts, w io.Writer) error {
	doc := FromTree(t, counts)
	sortRecords(doc.Nodes)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
