// ABOUTME: Whole-form edit model over the metadata of one object
// ABOUTME: Tracks added, edited, removed and reordered values and compiles them to a patch

package editform

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nainya/editstore/pkg/metadata"
	"github.com/nainya/editstore/pkg/movediff"
	"github.com/nainya/editstore/pkg/patch"
	"github.com/nainya/editstore/pkg/update"
)

// ErrIllegalChange is returned by Operations for a value whose change type
// is not one of add, update or remove
var ErrIllegalChange = errors.New("editform: illegal change type")

// MoveAnalyzer computes splice-moves turning source into target
type MoveAnalyzer func(source, target []*int) []movediff.Move

// Form holds the values of every metadata field of an object being edited
type Form struct {
	originalFieldKeys []string
	fieldKeys         []string
	fields            map[string][]*Value

	reinstatableNewValues map[string][]*Value
	pending               *Value
}

// New builds a form from the current metadata of an object
func New(m metadata.Map) *Form {
	f := &Form{
		fields:                make(map[string][]*Value, len(m)),
		reinstatableNewValues: make(map[string][]*Value),
	}
	for key, values := range m {
		f.originalFieldKeys = append(f.originalFieldKeys, key)
		tracked := make([]*Value, len(values))
		for i, v := range values {
			tracked[i] = NewValue(v)
		}
		f.setSorted(key, tracked)
	}
	slices.Sort(f.originalFieldKeys)
	f.fieldKeys = slices.Clone(f.originalFieldKeys)
	return f
}

// FieldKeys returns the field names in alphabetical order
func (f *Form) FieldKeys() []string {
	return slices.Clone(f.fieldKeys)
}

// Values returns the values of key in display order
func (f *Form) Values(key string) []*Value {
	return slices.Clone(f.fields[key])
}

// Pending returns the value being added, if any
func (f *Form) Pending() *Value {
	return f.pending
}

// Add starts a new value unless one is already pending
func (f *Form) Add() *Value {
	if f.pending == nil {
		f.pending = newAddedValue()
	}
	return f.pending
}

// SetMetadataField files the pending value under key, at the end of its
// values
func (f *Form) SetMetadataField(key string) error {
	if f.pending == nil {
		return fmt.Errorf("editform: no value pending for %s", key)
	}
	f.pending.Editing = false
	f.pending.New.Place = len(f.fields[key])
	f.fields[key] = append(f.fields[key], f.pending)
	f.addKey(key)
	f.pending = nil
	return nil
}

// CancelPending drops the value being added
func (f *Form) CancelPending() {
	f.pending = nil
}

// Remove drops the value at index from key entirely. Use it to cancel an
// added value; existing values are removed with Value.MarkRemoved.
func (f *Form) Remove(key string, index int) {
	values := f.fields[key]
	if index < 0 || index >= len(values) {
		return
	}
	values = slices.Delete(values, index, index+1)
	if len(values) == 0 {
		delete(f.fields, key)
		f.fieldKeys = slices.DeleteFunc(f.fieldKeys, func(k string) bool { return k == key })
		return
	}
	f.fields[key] = values
}

// Move relocates the value at from to to within key and renumbers places
func (f *Form) Move(key string, from, to int) {
	values := f.fields[key]
	if len(values) == 0 {
		return
	}
	movediff.MoveItem(values, from, to)
	for i, v := range values {
		v.New.Place = i
		v.ConfirmChanges(false)
	}
}

// HasChanges reports whether any value would produce an operation
func (f *Form) HasChanges() bool {
	for _, values := range f.fields {
		for _, v := range values {
			if v.HasChanges() {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether the form holds no field at all
func (f *Form) IsEmpty() bool {
	return len(f.fields) == 0
}

// Discard reverts every value to its original. Added values are set aside
// and the other edits remembered, so Reinstate can restore them.
func (f *Form) Discard() {
	f.ResetReinstatable()

	for key, values := range f.fields {
		kept := values[:0:0]
		for _, v := range values {
			if v.Added() {
				f.reinstatableNewValues[key] = append(f.reinstatableNewValues[key], v)
				continue
			}
			v.DiscardAndMarkReinstatable()
			kept = append(kept, v)
		}
		if len(kept) == 0 {
			delete(f.fields, key)
			continue
		}
		f.setSorted(key, kept)
	}

	f.fieldKeys = slices.Clone(f.originalFieldKeys)
	f.pending = nil
}

// Reinstate restores everything the last Discard reverted
func (f *Form) Reinstate() {
	for _, values := range f.fields {
		for _, v := range values {
			v.Reinstate()
		}
	}
	for key, added := range f.reinstatableNewValues {
		f.fields[key] = append(f.fields[key], added...)
		f.addKey(key)
	}
	for key, values := range f.fields {
		f.setSorted(key, values)
	}
	f.reinstatableNewValues = make(map[string][]*Value)
}

// IsReinstatable reports whether Reinstate has anything to restore
func (f *Form) IsReinstatable() bool {
	if len(f.reinstatableNewValues) > 0 {
		return true
	}
	for _, values := range f.fields {
		for _, v := range values {
			if v.IsReinstatable() {
				return true
			}
		}
	}
	return false
}

// ResetReinstatable forgets the last discard
func (f *Form) ResetReinstatable() {
	f.reinstatableNewValues = make(map[string][]*Value)
	for _, values := range f.fields {
		for _, v := range values {
			v.ResetReinstatable()
		}
	}
}

// Operations compiles the form into a patch. Per field, in field order:
// replaces by ascending original place, removes by descending original
// place, then adds. Moves for all fields follow, computed over the values
// that survive the removes. A nil analyzer uses movediff.Diff.
func (f *Form) Operations(analyzer MoveAnalyzer) (patch.List, error) {
	if analyzer == nil {
		analyzer = movediff.Diff[int]
	}

	var ops []metadata.Operation
	for _, key := range f.fieldKeys {
		var replaces, removes, adds []*Value
		for _, v := range f.fields[key] {
			switch v.Change {
			case update.ChangeNone:
			case update.ChangeUpdate:
				replaces = append(replaces, v)
			case update.ChangeRemove:
				removes = append(removes, v)
			case update.ChangeAdd:
				adds = append(adds, v)
			default:
				return nil, fmt.Errorf("%w: %d on %s", ErrIllegalChange, int(v.Change), key)
			}
		}

		slices.SortStableFunc(replaces, byOriginalPlace)
		for _, v := range replaces {
			ops = append(ops, metadata.ReplaceOperation{Field: key, Place: v.Original.Place, Value: metadata.PayloadOf(v.New)})
		}
		slices.SortStableFunc(removes, func(a, b *Value) int { return byOriginalPlace(b, a) })
		for _, v := range removes {
			ops = append(ops, metadata.RemoveOperation{Field: key, Place: v.Original.Place})
		}
		for _, v := range adds {
			ops = append(ops, metadata.AddOperation{Field: key, Values: []metadata.Payload{metadata.PayloadOf(v.New)}})
		}
	}

	for _, key := range f.fieldKeys {
		for _, m := range f.moves(key, analyzer) {
			ops = append(ops, metadata.MoveOperation{Field: key, From: m.From, To: m.To})
		}
	}

	return metadata.ToList(ops), nil
}

// moves compares the order the receiver holds after removes and adds with
// the order shown in the form. Added values sit after the surviving
// originals on the receiver, in the order their adds were emitted.
func (f *Form) moves(key string, analyzer MoveAnalyzer) []movediff.Move {
	values := f.fields[key]

	next := 0
	for _, v := range values {
		if !v.Added() && v.Original.Place >= next {
			next = v.Original.Place + 1
		}
	}
	identity := make(map[*Value]int, len(values))
	var surviving []*Value
	for _, v := range values {
		switch {
		case v.Removed():
			continue
		case v.Added():
			identity[v] = next
			next++
		default:
			identity[v] = v.Original.Place
		}
		surviving = append(surviving, v)
	}

	received := slices.Clone(surviving)
	slices.SortStableFunc(received, func(a, b *Value) int { return identity[a] - identity[b] })
	shown := slices.Clone(surviving)
	slices.SortStableFunc(shown, func(a, b *Value) int { return a.New.Place - b.New.Place })

	source := make([]*int, len(received))
	target := make([]*int, len(shown))
	for i := range received {
		a, b := identity[received[i]], identity[shown[i]]
		source[i], target[i] = &a, &b
	}
	return analyzer(source, target)
}

func byOriginalPlace(a, b *Value) int {
	return a.Original.Place - b.Original.Place
}

func (f *Form) setSorted(key string, values []*Value) {
	slices.SortStableFunc(values, func(a, b *Value) int { return a.New.Place - b.New.Place })
	f.fields[key] = values
}

func (f *Form) addKey(key string) {
	if i, found := slices.BinarySearch(f.fieldKeys, key); !found {
		f.fieldKeys = slices.Insert(f.fieldKeys, i, key)
	}
}
