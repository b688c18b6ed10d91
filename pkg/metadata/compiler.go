// ABOUTME: Compiles tracked metadatum updates into a sequential patch
// ABOUTME: Corrects places for values removed earlier in the same patch

package metadata

import (
	"errors"
	"fmt"

	"github.com/nainya/editstore/pkg/patch"
	"github.com/nainya/editstore/pkg/update"
)

var (
	// ErrIllegalChange is returned for an edit without a recognisable change type
	ErrIllegalChange = errors.New("metadata: illegal change type")
	// ErrNotMetadatum is returned when a tracked field is not a Metadatum
	ErrNotMetadatum = errors.New("metadata: field is not a metadatum")
)

// PatchCompiler turns edits of metadata values into patch operations. The
// zero value is ready to use.
type PatchCompiler struct{}

var _ update.PatchCompiler = PatchCompiler{}

// Compile walks updates in insertion order. Every place refers to the
// original snapshot; earlier removes of the same field are accounted for so
// the receiver can apply the result strictly in sequence.
func (PatchCompiler) Compile(updates update.FieldUpdates) (patch.List, error) {
	descriptors := make([]Operation, 0, updates.Len())
	for uuid, fu := range updates.All() {
		op, err := Describe(fu)
		if err != nil {
			return nil, fmt.Errorf("compile update %s: %w", uuid, err)
		}
		descriptors = append(descriptors, op)
	}
	return ToList(ShiftPlaces(descriptors)), nil
}

// Describe translates a single field update into its descriptor
func Describe(fu update.FieldUpdate) (Operation, error) {
	md, ok := fu.Field.(Metadatum)
	if !ok {
		if p, isPtr := fu.Field.(*Metadatum); isPtr && p != nil {
			md, ok = *p, true
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotMetadatum, fu.Field)
	}

	switch fu.ChangeType {
	case update.ChangeAdd:
		return AddOperation{Field: md.Key, Values: []Payload{PayloadOf(md.Value)}}, nil
	case update.ChangeRemove:
		return RemoveOperation{Field: md.Key, Place: md.Place}, nil
	case update.ChangeUpdate:
		return ReplaceOperation{Field: md.Key, Place: md.Place, Value: PayloadOf(md.Value)}, nil
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrIllegalChange, fu.ChangeType, md.Key)
}

// ShiftPlaces returns a copy of ops where each remove and replace is moved
// down by one for every remove of the same field emitted before it at a
// lower place.
func ShiftPlaces(ops []Operation) []Operation {
	removed := make(map[string][]int)
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case RemoveOperation:
			o.Place = shift(o.Place, removed[o.Field])
			removed[o.Field] = append(removed[o.Field], o.Place)
			op = o
		case ReplaceOperation:
			o.Place = shift(o.Place, removed[o.Field])
			op = o
		}
		out = append(out, op)
	}
	return out
}

func shift(place int, removed []int) int {
	for _, r := range removed {
		if r < place {
			place--
		}
	}
	return place
}
