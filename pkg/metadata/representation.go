// ABOUTME: Display representations of metadata values
// ABOUTME: Renderers are looked up per entity type, representation and context

package metadata

import (
	"fmt"

	"github.com/nainya/editstore/pkg/registry"
)

// RepresentationType is how a value should be shown
type RepresentationType string

const (
	PlainText           RepresentationType = "plain_text"
	AuthorityControlled RepresentationType = "authority_controlled"
	Item                RepresentationType = "item"
)

// Contexts a value can be rendered in
const (
	ContextAny        = "any"
	ContextEditPage   = "edit_page"
	ContextSearchList = "search_list"
)

// DefaultEntityType is used when no renderer exists for an entity type
const DefaultEntityType = "Publication"

// Representation is a metadatum prepared for display
type Representation struct {
	Metadatum
	EntityType string
	Type       RepresentationType
}

// Represent classifies m: virtual values stand for a related item, values
// with an authority are authority controlled, the rest is plain text.
// entityType is the type of the related item and may be empty.
func Represent(m Metadatum, entityType string) Representation {
	r := Representation{Metadatum: m, EntityType: entityType, Type: PlainText}
	switch {
	case m.IsVirtual():
		r.Type = Item
	case m.Authority != "":
		r.Type = AuthorityControlled
	}
	if r.EntityType == "" {
		r.EntityType = DefaultEntityType
	}
	return r
}

// Key is the registry key to render r in context
func (r Representation) Key(context string) registry.Key {
	return registry.Key{EntityType: r.EntityType, Representation: string(r.Type), Context: context}
}

// Renderer turns a representation into display text
type Renderer func(Representation) string

// Renderers is the renderer registry
type Renderers = registry.Registry[Renderer]

// NewRenderers creates a registry holding the default renderers
func NewRenderers() *Renderers {
	r := registry.New[Renderer](registry.Key{
		EntityType:     DefaultEntityType,
		Representation: string(PlainText),
		Context:        ContextAny,
	})
	r.MustRegister(r.Defaults(), renderPlain)
	r.MustRegister(registry.Key{EntityType: DefaultEntityType, Representation: string(AuthorityControlled), Context: ContextAny}, renderAuthority)
	r.MustRegister(registry.Key{EntityType: DefaultEntityType, Representation: string(Item), Context: ContextAny}, renderItem)
	return r
}

// Render looks up the renderer for m and applies it
func Render(renderers *Renderers, m Metadatum, entityType, context string) string {
	rep := Represent(m, entityType)
	render, ok := renderers.Lookup(rep.Key(context))
	if !ok {
		return m.Value.Value
	}
	return render(rep)
}

func renderPlain(r Representation) string {
	if r.Language != "" {
		return fmt.Sprintf("%s [%s]", r.Value.Value, r.Language)
	}
	return r.Value.Value
}

func renderAuthority(r Representation) string {
	return fmt.Sprintf("%s (%s)", r.Value.Value, r.Authority)
}

func renderItem(r Representation) string {
	return fmt.Sprintf("%s -> %s", r.Value.Value, r.RelationshipID())
}
