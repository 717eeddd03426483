package codec

import (
	"errors"
	"fmt"
	"io"

	"gotrabandhus/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles the export format written as a YAML sequence
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exports
func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// Parse imports a graph from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.FamilyGraph, error) {
	var records []record
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.Malformed("empty document", nil)
		}
		return nil, domain.Malformed("failed to parse YAML", err)
	}
	if records == nil {
		return nil, domain.Malformed("expected a sequence of nodes", nil)
	}

	return fromRecords(records)
}

// Export writes the graph as YAML
func (c *YAMLCodec) Export(g *domain.FamilyGraph, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(toRecords(g)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
