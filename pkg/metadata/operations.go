// ABOUTME: Metadata patch operation descriptors
// ABOUTME: Field-level add, remove, replace and move translated to wire operations

package metadata

import "github.com/nainya/editstore/pkg/patch"

// Root is the path segment every metadata operation lives under
const Root = "metadata"

// Payload is the body of an add or replace operation
type Payload struct {
	Value    string  `json:"value"`
	Language *string `json:"language"`
}

// PayloadOf keeps the text and language of v; an empty language is sent as null
func PayloadOf(v Value) Payload {
	p := Payload{Value: v.Value}
	if v.Language != "" {
		lang := v.Language
		p.Language = &lang
	}
	return p
}

// Operation is a metadata change not yet placed on the wire
type Operation interface {
	FieldName() string
	ToOperation() patch.Operation
}

// AddOperation appends values to the end of a field
type AddOperation struct {
	Field  string
	Values []Payload
}

// RemoveOperation drops the value at Place
type RemoveOperation struct {
	Field string
	Place int
}

// ReplaceOperation overwrites the value at Place
type ReplaceOperation struct {
	Field string
	Place int
	Value Payload
}

// MoveOperation relocates the value at From to To
type MoveOperation struct {
	Field string
	From  int
	To    int
}

func (o AddOperation) FieldName() string     { return o.Field }
func (o RemoveOperation) FieldName() string  { return o.Field }
func (o ReplaceOperation) FieldName() string { return o.Field }
func (o MoveOperation) FieldName() string    { return o.Field }

func (o AddOperation) ToOperation() patch.Operation {
	values := o.Values
	if values == nil {
		values = []Payload{}
	}
	return patch.Operation{Op: patch.OpAdd, Path: patch.AppendPath(Root, o.Field), Value: values}
}

func (o RemoveOperation) ToOperation() patch.Operation {
	return patch.Operation{Op: patch.OpRemove, Path: patch.Path(Root, o.Field, o.Place)}
}

func (o ReplaceOperation) ToOperation() patch.Operation {
	return patch.Operation{Op: patch.OpReplace, Path: patch.Path(Root, o.Field, o.Place), Value: o.Value}
}

func (o MoveOperation) ToOperation() patch.Operation {
	return patch.Operation{
		Op:   patch.OpMove,
		From: patch.Path(Root, o.Field, o.From),
		Path: patch.Path(Root, o.Field, o.To),
	}
}

// ToList converts descriptors to wire operations as they are
func ToList(ops []Operation) patch.List {
	out := make(patch.List, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.ToOperation())
	}
	return out
}
