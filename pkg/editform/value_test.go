// ABOUTME: Tests for per-value edit tracking
// ABOUTME: Verifies change classification and single-level undo

package editform

import (
	"testing"

	"github.com/nainya/editstore/pkg/metadata"
	"github.com/nainya/editstore/pkg/update"
)

func TestConfirmChanges(t *testing.T) {
	tests := []struct {
		name          string
		edit          func(v *Value)
		wantChange    update.ChangeType
		wantReordered bool
	}{
		{"untouched", func(v *Value) {}, update.ChangeNone, false},
		{"text", func(v *Value) { v.New.Value = "other" }, update.ChangeUpdate, false},
		{"language", func(v *Value) { v.New.Language = "de" }, update.ChangeUpdate, false},
		{"place only", func(v *Value) { v.New.Place = 3 }, update.ChangeNone, true},
		{"text reverted", func(v *Value) {
			v.New.Value = "other"
			v.ConfirmChanges(false)
			v.New.Value = "text"
		}, update.ChangeNone, false},
		{"removed stays removed", func(v *Value) {
			v.MarkRemoved()
			v.New.Value = "other"
		}, update.ChangeRemove, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValue(metadata.Value{Value: "text", Language: "en", Place: 1})
			tt.edit(v)
			v.ConfirmChanges(true)

			if v.Change != tt.wantChange {
				t.Errorf("Expected change %s, got %s", tt.wantChange, v.Change)
			}
			if v.Reordered != tt.wantReordered {
				t.Errorf("Expected reordered %v, got %v", tt.wantReordered, v.Reordered)
			}
			if v.HasChanges() != (tt.wantChange != update.ChangeNone || tt.wantReordered) {
				t.Errorf("Unexpected HasChanges %v", v.HasChanges())
			}
			if v.Editing {
				t.Error("Expected editing to be finished")
			}
		})
	}
}

func TestAddedValueKeepsChange(t *testing.T) {
	v := newAddedValue()
	v.Edit("new", "")
	v.ConfirmChanges(false)

	if !v.Added() {
		t.Errorf("Expected ADD, got %s", v.Change)
	}
	if !v.Editing {
		t.Error("Expected value to still be edited")
	}
}

func TestValueDiscardAndReinstate(t *testing.T) {
	v := NewValue(metadata.Value{Value: "text", Place: 0})
	v.Edit("changed", "fr")
	v.New.Place = 2
	v.ConfirmChanges(true)

	v.DiscardAndMarkReinstatable()

	if v.HasChanges() {
		t.Error("Expected no changes after discard")
	}
	if v.New != v.Original {
		t.Errorf("Expected new value to equal original, got %+v", v.New)
	}
	if !v.IsReinstatable() {
		t.Fatal("Expected value to be reinstatable")
	}

	v.Reinstate()

	if v.New.Value != "changed" || v.New.Language != "fr" || v.New.Place != 2 {
		t.Errorf("Expected edit restored, got %+v", v.New)
	}
	if v.Change != update.ChangeUpdate || !v.Reordered {
		t.Errorf("Expected UPDATE and reordered, got %s %v", v.Change, v.Reordered)
	}
	if v.IsReinstatable() {
		t.Error("Expected reinstatable slots to be cleared")
	}
}

func TestRemovedValueReinstatesChangeOnly(t *testing.T) {
	v := NewValue(metadata.Value{Value: "text", Place: 0})
	v.MarkRemoved()
	v.DiscardAndMarkReinstatable()

	if v.reinstatableValue != nil {
		t.Error("Expected no value snapshot for a plain remove")
	}

	v.Reinstate()
	if !v.Removed() {
		t.Errorf("Expected REMOVE restored, got %s", v.Change)
	}
	if v.New != v.Original {
		t.Error("Expected value untouched")
	}
}
