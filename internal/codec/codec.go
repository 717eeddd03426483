package codec

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"gotrabandhus/internal/domain"

	"golang.org/x/crypto/blake2b"
)

// Importer decodes a family graph from an export document
type Importer interface {
	Parse(r io.Reader) (*domain.FamilyGraph, error)
	Format() string
}

// Exporter encodes a family graph as an export document
type Exporter interface {
	Export(g *domain.FamilyGraph, w io.Writer) error
	Format() string
}

// Codec is a format that can both import and export
type Codec interface {
	Importer
	Exporter
	ContentType() string
}

// Lookup returns the codec registered for a format name
func Lookup(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Digest returns a stable content hash of an export document, used as an ETag
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// record is the on-disk shape of one node, shared by every format
type record struct {
	ID   string         `json:"id" yaml:"id"`
	Data map[string]any `json:"data" yaml:"data"`
	Rels relations      `json:"rels" yaml:"rels"`
}

type relations struct {
	Father   string   `json:"father,omitempty" yaml:"father,omitempty"`
	Mother   string   `json:"mother,omitempty" yaml:"mother,omitempty"`
	Spouses  []string `json:"spouses,omitempty" yaml:"spouses,omitempty"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// toRecords flattens a graph in insertion order
func toRecords(g *domain.FamilyGraph) []record {
	nodes := g.Nodes()
	out := make([]record, 0, len(nodes))
	for _, n := range nodes {
		data := map[string]any(n.Data)
		if data == nil {
			data = map[string]any{}
		}
		out = append(out, record{
			ID:   n.ID,
			Data: data,
			Rels: relations{
				Father:   n.Rels.Father,
				Mother:   n.Rels.Mother,
				Spouses:  n.Rels.Spouses,
				Children: n.Rels.Children,
			},
		})
	}
	return out
}

// fromRecords builds a graph, rejecting records without an id and repeated ids.
// Relation invariants are not checked here.
func fromRecords(records []record) (*domain.FamilyGraph, error) {
	g := domain.NewFamilyGraph()
	for i, rec := range records {
		if rec.ID == "" {
			return nil, domain.Malformed(fmt.Sprintf("node %d has no id", i), nil)
		}
		if _, exists := g.FindByID(rec.ID); exists {
			return nil, domain.Malformed(fmt.Sprintf("duplicate id %q", rec.ID), nil)
		}
		node := domain.NewPersonNode(rec.ID, domain.Attributes(rec.Data))
		node.Rels = domain.Relations{
			Father:   rec.Rels.Father,
			Mother:   rec.Rels.Mother,
			Spouses:  nonEmpty(rec.Rels.Spouses),
			Children: nonEmpty(rec.Rels.Children),
		}
		g.Put(node)
	}
	return g, nil
}

func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return ids
}
