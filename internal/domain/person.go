package domain

import "strings"

// Well-known attribute keys. Payloads from the UI already use these names.
const (
	AttrFirstName = "first name"
	AttrLastName  = "last name"
	AttrGender    = "gender"
	AttrBirthday  = "birthday"
	AttrAvatar    = "avatar"
	AttrBio       = "bio"
)

// Gender is the recorded gender of a person
type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = ""
)

// ParseGender normalizes the gender spellings seen in payloads ("M", "male", "f", ...)
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	}
	return GenderUnknown
}

// Opposite returns the other gender, or GenderUnknown if g is unknown
func (g Gender) Opposite() Gender {
	switch g {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	}
	return GenderUnknown
}

// Attributes is the open set of display fields of a person
type Attributes map[string]any

// String returns the value stored under key if it is a string
func (a Attributes) String(key string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Gender returns the parsed gender attribute
func (a Attributes) Gender() Gender {
	return ParseGender(a.String(AttrGender))
}

// Has reports whether key is present, even with a nil value
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Clone returns a shallow copy
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Relations holds the ids a person points at. Empty Father/Mother means absent.
type Relations struct {
	Father   string   `json:"father,omitempty" yaml:"father,omitempty"`
	Mother   string   `json:"mother,omitempty" yaml:"mother,omitempty"`
	Spouses  []string `json:"spouses,omitempty" yaml:"spouses,omitempty"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
}

// Clone returns a copy that shares no slices with r
func (r Relations) Clone() Relations {
	return Relations{
		Father:   r.Father,
		Mother:   r.Mother,
		Spouses:  cloneIDs(r.Spouses),
		Children: cloneIDs(r.Children),
	}
}

// PersonNode is one member of a family tree
type PersonNode struct {
	ID   string     `json:"id" yaml:"id"`
	Data Attributes `json:"data" yaml:"data"`
	Rels Relations  `json:"rels" yaml:"rels"`
}

// NewPersonNode creates a node with a copy of attrs
func NewPersonNode(id string, attrs Attributes) *PersonNode {
	data := attrs.Clone()
	if data == nil {
		data = make(Attributes)
	}
	return &PersonNode{ID: id, Data: data}
}

// Gender returns the recorded gender of the person
func (p *PersonNode) Gender() Gender {
	return p.Data.Gender()
}

// Clone returns a deep copy of the node (attribute values are shared)
func (p *PersonNode) Clone() *PersonNode {
	return &PersonNode{
		ID:   p.ID,
		Data: p.Data.Clone(),
		Rels: p.Rels.Clone(),
	}
}

// DisplayName joins first and last name
func (p *PersonNode) DisplayName() string {
	return strings.TrimSpace(p.Data.String(AttrFirstName) + " " + p.Data.String(AttrLastName))
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// appendID appends id unless already present
func appendID(ids []string, id string) []string {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// removeID returns ids without any occurrence of id. The input slice is not modified.
func removeID(ids []string, id string) []string {
	if !containsID(ids, id) {
		return ids
	}
	out := make([]string, 0, len(ids)-1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
