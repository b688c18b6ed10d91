// ABOUTME: Metadata data model for edited objects
// ABOUTME: Values per field, identifiable view models and virtual value detection

package metadata

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// VirtualPrefix marks the authority of a value derived from a relationship
const VirtualPrefix = "virtual::"

// Value is one value of a metadata field
type Value struct {
	Value      string `json:"value" yaml:"value"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Authority  string `json:"authority,omitempty" yaml:"authority,omitempty"`
	Confidence int    `json:"confidence" yaml:"confidence"`
	Place      int    `json:"place" yaml:"place"`
}

// IsVirtual reports whether the value is derived from a relationship
func (v Value) IsVirtual() bool {
	return strings.HasPrefix(v.Authority, VirtualPrefix)
}

// RelationshipID returns the relationship a virtual value is derived from
func (v Value) RelationshipID() string {
	if !v.IsVirtual() {
		return ""
	}
	return strings.TrimPrefix(v.Authority, VirtualPrefix)
}

// SameContent compares text and language, ignoring place and authority
func (v Value) SameContent(other Value) bool {
	return v.Value == other.Value && v.Language == other.Language
}

// Map holds the values of every field of an object, keyed by field name
// such as dc.title
type Map map[string][]Value

// Keys returns the field names in alphabetical order
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone deep-copies the map
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, vs := range m {
		out[k] = slices.Clone(vs)
	}
	return out
}

// Metadata flattens the map into identifiable view models, fields in
// alphabetical order and values by place. Every call mints new uuids.
func (m Map) Metadata() []Metadatum {
	var out []Metadatum
	for _, key := range m.Keys() {
		values := slices.Clone(m[key])
		slices.SortStableFunc(values, func(a, b Value) int { return a.Place - b.Place })
		for _, v := range values {
			out = append(out, NewMetadatum(key, v))
		}
	}
	return out
}

// Metadatum is a single value bound to its field, identifiable for edit tracking
type Metadatum struct {
	UUID string `json:"uuid"`
	Key  string `json:"key"`
	Value
}

// NewMetadatum wraps v with a fresh identity
func NewMetadatum(key string, v Value) Metadatum {
	return Metadatum{UUID: uuid.NewString(), Key: key, Value: v}
}

// GetUUID implements update.Identifiable
func (m Metadatum) GetUUID() string {
	return m.UUID
}
