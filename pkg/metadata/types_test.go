// ABOUTME: Tests for the metadata data model and representations
// ABOUTME: Covers virtual detection, flattening and renderer lookup

package metadata

import (
	"testing"
)

func TestVirtualValues(t *testing.T) {
	v := Value{Value: "Smith, J.", Authority: VirtualPrefix + "rel-7"}
	if !v.IsVirtual() {
		t.Error("Expected value to be virtual")
	}
	if got := v.RelationshipID(); got != "rel-7" {
		t.Errorf("Expected rel-7, got %q", got)
	}

	plain := Value{Value: "Smith, J.", Authority: "orcid:0000"}
	if plain.IsVirtual() {
		t.Error("Expected authority value not to be virtual")
	}
	if plain.RelationshipID() != "" {
		t.Error("Expected no relationship id for non-virtual value")
	}
}

func TestMapMetadata(t *testing.T) {
	m := Map{
		"dc.title":   {{Value: "Title", Place: 0}},
		"dc.subject": {{Value: "second", Place: 1}, {Value: "first", Place: 0}},
	}

	md := m.Metadata()
	if len(md) != 3 {
		t.Fatalf("Expected 3 metadata, got %d", len(md))
	}

	want := []string{"first", "second", "Title"}
	seen := make(map[string]bool)
	for i, d := range md {
		if d.Value.Value != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], d.Value.Value)
		}
		if d.UUID == "" || seen[d.UUID] {
			t.Errorf("Expected unique uuid, got %q", d.UUID)
		}
		seen[d.UUID] = true
	}

	if m["dc.subject"][0].Value != "second" {
		t.Error("Expected Metadata not to reorder the map itself")
	}
}

func TestMapClone(t *testing.T) {
	m := Map{"dc.title": {{Value: "a"}}}
	c := m.Clone()
	c["dc.title"][0].Value = "b"

	if m["dc.title"][0].Value != "a" {
		t.Error("Expected clone to be independent")
	}
}

func TestRender(t *testing.T) {
	renderers := NewRenderers()

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"plain", Value{Value: "Title"}, "Title"},
		{"plain with language", Value{Value: "Titel", Language: "nl"}, "Titel [nl]"},
		{"authority", Value{Value: "Smith", Authority: "orcid:1"}, "Smith (orcid:1)"},
		{"virtual", Value{Value: "Smith", Authority: VirtualPrefix + "rel-1"}, "Smith -> rel-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(renderers, NewMetadatum("dc.contributor", tt.value), "", ContextEditPage)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderCustomEntity(t *testing.T) {
	renderers := NewRenderers()
	renderers.MustRegister(
		Represent(Metadatum{}, "Person").Key(ContextAny),
		func(r Representation) string { return "person: " + r.Value.Value },
	)

	got := Render(renderers, NewMetadatum("dc.contributor", Value{Value: "Smith"}), "Person", ContextSearchList)
	if got != "person: Smith" {
		t.Errorf("Expected person renderer, got %q", got)
	}
}
