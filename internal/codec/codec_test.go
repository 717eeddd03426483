package codec

import (
	"bytes"
	"strings"
	"testing"

	"gotrabandhus/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeGenerations builds grandparent -> parent+spouse -> two children
func threeGenerations(t *testing.T) *domain.FamilyGraph {
	t.Helper()
	ids := domain.NewSequenceGenerator("p")

	g := domain.NewFamilyGraph()
	g.Put(domain.NewPersonNode("root", domain.Attributes{
		domain.AttrFirstName: "Ravi",
		domain.AttrGender:    "M",
		domain.AttrBirthday:  "1970",
		"birth year":         1970,
	}))

	g, grandpa, err := domain.AddMember(g, ids, "root", domain.Attributes{domain.AttrFirstName: "Hari", domain.AttrGender: "M"}, domain.RelationParent)
	require.NoError(t, err)
	g, _, err = domain.AddMember(g, ids, "root", domain.Attributes{domain.AttrFirstName: "Sita"}, domain.RelationSpouse)
	require.NoError(t, err)
	g, _, err = domain.AddMember(g, ids, "root", domain.Attributes{domain.AttrFirstName: "Anu", domain.AttrGender: "F"}, domain.RelationChild)
	require.NoError(t, err)
	g, _, err = domain.AddMember(g, ids, "root", domain.Attributes{domain.AttrFirstName: "Dev", domain.AttrGender: "M"}, domain.RelationChild)
	require.NoError(t, err)

	require.Empty(t, domain.Validate(g))
	node, _ := g.FindByID(grandpa)
	require.Equal(t, []string{"root"}, node.Rels.Children)
	return g
}

func TestJSONRoundTrip(t *testing.T) {
	g := threeGenerations(t)

	data, err := ExportGraph(g)
	require.NoError(t, err)

	back, err := ImportGraph(data)
	require.NoError(t, err)

	assert.True(t, domain.Equal(g, back), "expected import(export(g)) to equal g")
	assert.Equal(t, g.IDs(), back.IDs())

	root, ok := back.FindByID("root")
	require.True(t, ok)
	assert.EqualValues(t, 1970, root.Data["birth year"])
}

func TestJSONExportIsDeterministic(t *testing.T) {
	g := threeGenerations(t)

	first, err := ExportGraph(g)
	require.NoError(t, err)
	second, err := ExportGraph(g.Clone())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, Digest(first), Digest(second))
}

func TestJSONExportShape(t *testing.T) {
	g := domain.NewFamilyGraph()
	g.Put(&domain.PersonNode{ID: "solo"})

	data, err := ExportGraph(g)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":"solo","data":{},"rels":{}}]`, string(data))
}

func TestJSONImportAcceptsChartData(t *testing.T) {
	input := `[
	  {"id": "1", "data": {"first name": "John", "gender": "M"}, "rels": {"spouses": ["2"], "children": ["3"]}},
	  {"id": "2", "data": {"first name": "Mary", "gender": "F"}, "rels": {"spouses": ["1"], "children": ["3"]}},
	  {"id": "3", "data": {"first name": "Sarah"}, "rels": {"father": "1", "mother": "2"}, "main": true}
	]`

	g, err := ImportGraph([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	child, ok := g.FindByID("3")
	require.True(t, ok)
	assert.Equal(t, "1", child.Rels.Father)
	assert.Equal(t, "2", child.Rels.Mother)
	assert.Empty(t, domain.Validate(g))
}

func TestJSONImportDoesNotValidateInvariants(t *testing.T) {
	g, err := ImportGraph([]byte(`[{"id":"a","data":{},"rels":{"father":"ghost"}}]`))
	require.NoError(t, err)
	assert.NotEmpty(t, domain.Validate(g))
}

func TestJSONImportMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "family tree"},
		{"object instead of array", `{"id":"a"}`},
		{"null", `null`},
		{"missing id", `[{"data":{}}]`},
		{"numeric id", `[{"id":1}]`},
		{"spouses not a list", `[{"id":"a","rels":{"spouses":"b"}}]`},
		{"data not an object", `[{"id":"a","data":"x"}]`},
		{"duplicate id", `[{"id":"a"},{"id":"a"}]`},
		{"trailing data", `[{"id":"a"}] [{"id":"b"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportGraph([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedData)
		})
	}
}

func TestJSONImportEmptyArray(t *testing.T) {
	g, err := ImportGraph([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestYAMLRoundTrip(t *testing.T) {
	g := threeGenerations(t)
	c := NewYAMLCodec()

	var buf bytes.Buffer
	require.NoError(t, c.Export(g, &buf))
	assert.Contains(t, buf.String(), "first name: Ravi")

	back, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back), "expected YAML round trip to preserve graph")
}

func TestYAMLImportMalformed(t *testing.T) {
	c := NewYAMLCodec()

	for name, input := range map[string]string{
		"empty":      "",
		"mapping":    "id: a\n",
		"missing id": "- data: {}\n",
		"bad syntax": "- id: [a\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Parse(strings.NewReader(input))
			assert.ErrorIs(t, err, domain.ErrMalformedData)
		})
	}
}

func TestLookup(t *testing.T) {
	for _, format := range []string{"json", "JSON", "yaml", "yml"} {
		c, err := Lookup(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, c.ContentType())
	}

	_, err := Lookup("gedcom")
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	a := Digest([]byte("one"))
	b := Digest([]byte("two"))

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Digest([]byte("one")))
}
