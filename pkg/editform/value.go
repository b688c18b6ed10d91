// ABOUTME: Per-value edit tracking for the metadata edit form
// ABOUTME: Keeps original and new value with single-level undo of a discard

package editform

import (
	"github.com/nainya/editstore/pkg/metadata"
	"github.com/nainya/editstore/pkg/update"
)

// Value is one metadata value being edited
type Value struct {
	Original metadata.Value
	New      metadata.Value
	Editing  bool
	// Change is ChangeNone while the text and language are untouched
	Change    update.ChangeType
	Reordered bool

	reinstatableValue  *metadata.Value
	reinstatableChange update.ChangeType
}

// NewValue starts tracking v
func NewValue(v metadata.Value) *Value {
	return &Value{Original: v, New: v}
}

// newAddedValue creates an empty value that is being added
func newAddedValue() *Value {
	return &Value{Change: update.ChangeAdd, Editing: true}
}

// Added reports whether the value did not exist on the object
func (v *Value) Added() bool {
	return v.Change == update.ChangeAdd
}

// Removed reports whether the value is marked for removal
func (v *Value) Removed() bool {
	return v.Change == update.ChangeRemove
}

// Edit sets the new text and language and marks the value as being edited.
// Call ConfirmChanges to classify the edit.
func (v *Value) Edit(text, language string) {
	v.New.Value = text
	v.New.Language = language
	v.Editing = true
}

// MarkRemoved flags the value for removal
func (v *Value) MarkRemoved() {
	v.Change = update.ChangeRemove
	v.Editing = false
}

// ConfirmChanges classifies the current edit. A different text or language
// is an update; a different place only sets Reordered. Added and removed
// values keep their change.
func (v *Value) ConfirmChanges(finishEditing bool) {
	v.Reordered = v.Original.Place != v.New.Place
	if v.Change == update.ChangeNone || v.Change == update.ChangeUpdate {
		if v.Original.SameContent(v.New) {
			v.Change = update.ChangeNone
		} else {
			v.Change = update.ChangeUpdate
		}
	}
	if finishEditing {
		v.Editing = false
	}
}

// HasChanges reports whether the value would produce an operation
func (v *Value) HasChanges() bool {
	return v.Change != update.ChangeNone || v.Reordered
}

// Discard reverts the value to its original
func (v *Value) Discard() {
	v.Change = update.ChangeNone
	v.New = v.Original
	v.Editing = false
	v.Reordered = false
}

// DiscardAndMarkReinstatable reverts the value but remembers the edit so
// Reinstate can restore it
func (v *Value) DiscardAndMarkReinstatable() {
	if v.Change == update.ChangeUpdate || v.Reordered {
		kept := v.New
		v.reinstatableValue = &kept
	}
	v.reinstatableChange = v.Change
	v.Discard()
}

// Reinstate restores the edit remembered by DiscardAndMarkReinstatable
func (v *Value) Reinstate() {
	if v.reinstatableValue != nil {
		v.New = *v.reinstatableValue
		v.reinstatableValue = nil
	}
	if v.reinstatableChange != update.ChangeNone {
		v.Change = v.reinstatableChange
		v.reinstatableChange = update.ChangeNone
	}
	v.Reordered = v.Original.Place != v.New.Place
}

// IsReinstatable reports whether a discarded edit can be restored
func (v *Value) IsReinstatable() bool {
	return v.reinstatableValue != nil || v.reinstatableChange != update.ChangeNone
}

// ResetReinstatable forgets the discarded edit
func (v *Value) ResetReinstatable() {
	v.reinstatableValue = nil
	v.reinstatableChange = update.ChangeNone
}
