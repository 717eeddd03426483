package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gotrabandhus/internal/domain"
)

// JSONCodec handles the JSON export format: an array of {id, data, rels}
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of exports
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse imports a graph from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.FamilyGraph, error) {
	decoder := json.NewDecoder(r)

	var records []record
	if err := decoder.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.Malformed("empty document", nil)
		}
		return nil, domain.Malformed("failed to parse JSON", err)
	}
	if records == nil {
		return nil, domain.Malformed("expected an array of nodes", nil)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.Malformed("unexpected data after node array", err)
	}

	return fromRecords(records)
}

// Export writes the graph as indented JSON
func (c *JSONCodec) Export(g *domain.FamilyGraph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(toRecords(g)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// ExportGraph returns the JSON export document of g
func ExportGraph(g *domain.FamilyGraph) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportGraph parses a JSON export document
func ImportGraph(data []byte) (*domain.FamilyGraph, error) {
	return NewJSONCodec().Parse(bytes.NewReader(data))
}
