package dendro

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Attributes is one entry of a record's attribute list. The clustering tool
// emits a list per record; only element zero is consulted by the builder,
// and only the accession is required.
type Attributes struct {
	CellSetAccession string `json:"cell_set_accession"`
	CellSetLabel     string `json:"cell_set_label,omitempty"`
	CellSetAlias     string `json:"cell_set_alias,omitempty"`
}

// Record is one node of the nested input document. It is a tagged union:
// a leaf carries LeafAttributes, an internal node carries NodeAttributes
// plus nested Children. [Record.Kind] resolves the variant so the builder
// dispatches on an explicit tag rather than probing fields.
type Record struct {
	NodeAttributes []Attributes `json:"node_attributes,omitempty"`
	LeafAttributes []Attributes `json:"leaf_attributes,omitempty"`
	Children       []Record     `json:"children,omitempty"`
}

// RecordKind identifies which variant of the input union a record is.
type RecordKind int

const (
	// KindInvalid marks a record with neither attribute field. Such records
	// are malformed input and abort the build.
	KindInvalid RecordKind = iota
	// KindLeaf marks a record carrying leaf_attributes. Leaves never
	// recurse, even if a children field happens to be present.
	KindLeaf
	// KindInternal marks a record carrying node_attributes. Its Children
	// may be empty, in which case the node is a structural leaf.
	KindInternal
)

// Kind resolves the record's variant. The leaf tag wins when both attribute
// fields are present, matching the probe order of the original tool.
func (r Record) Kind() RecordKind {
	switch {
	case len(r.LeafAttributes) > 0:
		return KindLeaf
	case len(r.NodeAttributes) > 0:
		return KindInternal
	default:
		return KindInvalid
	}
}

// Accession returns the record's unique name: the cell_set_accession of
// attribute entry zero for the resolved variant. It returns
// [ErrMalformedRecord] for invalid records and for empty accessions.
func (r Record) Accession() (string, error) {
	var attrs []Attributes
	switch r.Kind() {
	case KindLeaf:
		attrs = r.LeafAttributes
	case KindInternal:
		attrs = r.NodeAttributes
	default:
		return "", fmt.Errorf("record has neither node_attributes nor leaf_attributes: %w", ErrMalformedRecord)
	}
	if attrs[0].CellSetAccession == "" {
		return "", fmt.Errorf("record has empty cell_set_accession: %w", ErrMalformedRecord)
	}
	return attrs[0].CellSetAccession, nil
}

// ReadDocument decodes a nested dendrogram document from r.
// The document is decoded once at this boundary; all later passes work on
// the explicit [Record] union. ReadDocument does not close r.
func ReadDocument(r io.Reader) (Record, error) {
	var doc Record
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Record{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// ReadDocumentFile reads a dendrogram JSON file and returns the decoded
// root record.
func ReadDocumentFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}
