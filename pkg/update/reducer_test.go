// ABOUTME: Tests for edit tracking state transitions
// ABOUTME: Verifies change merging, discard/reinstate and field resets

package update

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nainya/editstore/pkg/notify"
)

type testField struct {
	UUID  string
	Value string
}

func (f testField) GetUUID() string { return f.UUID }

const pageURL = "/items/1234/edit"

func mustReduce(t *testing.T, state State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		next, err := Reduce(state, a)
		if err != nil {
			t.Fatalf("Failed to apply %s: %v", a.Type(), err)
		}
		state = next
	}
	return state
}

func initialState(t *testing.T) State {
	return mustReduce(t, State{}, Initialize{
		Url: pageURL,
		Fields: []Identifiable{
			testField{UUID: "a", Value: "alpha"},
			testField{UUID: "b", Value: "beta"},
			testField{UUID: "c", Value: "gamma"},
		},
		LastModified: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestMerge(t *testing.T) {
	tests := []struct {
		existing, next, want ChangeType
	}{
		{ChangeNone, ChangeUpdate, ChangeUpdate},
		{ChangeUpdate, ChangeNone, ChangeUpdate},
		{ChangeAdd, ChangeRemove, ChangeRemove},
		{ChangeRemove, ChangeUpdate, ChangeRemove},
		{ChangeAdd, ChangeUpdate, ChangeAdd},
		{ChangeUpdate, ChangeAdd, ChangeAdd},
	}

	for _, tt := range tests {
		if got := Merge(tt.existing, tt.next); got != tt.want {
			t.Errorf("Merge(%s, %s): expected %s, got %s", tt.existing, tt.next, tt.want, got)
		}
	}
}

func TestParseChangeType(t *testing.T) {
	for _, ct := range []ChangeType{ChangeNone, ChangeUpdate, ChangeAdd, ChangeRemove} {
		text, err := ct.MarshalText()
		if err != nil {
			t.Fatalf("Failed to marshal %d: %v", ct, err)
		}
		var parsed ChangeType
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("Failed to parse %s: %v", text, err)
		}
		if parsed != ct {
			t.Errorf("Expected %s, got %s", ct, parsed)
		}
	}

	if _, err := ParseChangeType("rename"); err == nil {
		t.Error("Expected error for unknown change type")
	}
	if _, err := ChangeType(9).MarshalText(); err == nil {
		t.Error("Expected error marshalling out-of-range change type")
	}
}

func TestInitialize(t *testing.T) {
	state := initialState(t)

	entry, ok := state.Live(pageURL)
	if !ok {
		t.Fatal("Expected live entry after initialize")
	}

	if entry.FieldStates.Len() != 3 {
		t.Errorf("Expected 3 field states, got %d", entry.FieldStates.Len())
	}
	for uuid, fs := range entry.FieldStates.All() {
		if fs.Editable || fs.IsNew || !fs.IsValid {
			t.Errorf("Field %s: expected neutral state, got %+v", uuid, fs)
		}
	}
	if entry.HasUpdates() {
		t.Error("Expected no updates after initialize")
	}
	if got := entry.FieldStates.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Expected insertion order [a b c], got %v", got)
	}
}

func TestInitializeResetsEdits(t *testing.T) {
	state := mustReduce(t, initialState(t),
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "a", Value: "changed"}, ChangeType: ChangeUpdate},
		Initialize{Url: pageURL, Fields: []Identifiable{testField{UUID: "a"}}},
	)

	entry, _ := state.Live(pageURL)
	if entry.HasUpdates() {
		t.Error("Expected initialize to drop pending updates")
	}
	if entry.FieldStates.Len() != 1 {
		t.Errorf("Expected 1 field state, got %d", entry.FieldStates.Len())
	}
}

func TestAddFieldUpdate(t *testing.T) {
	added := testField{UUID: "new", Value: "delta"}
	state := mustReduce(t, initialState(t),
		AddFieldUpdate{Url: pageURL, Field: added, ChangeType: ChangeAdd},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "b", Value: "beta2"}, ChangeType: ChangeUpdate},
	)

	entry, _ := state.Live(pageURL)

	fs, ok := entry.FieldStates.Get("new")
	if !ok || !fs.IsNew || !fs.Editable || !fs.IsValid {
		t.Errorf("Expected new editable valid state for added field, got %+v (present=%v)", fs, ok)
	}

	fu, _ := entry.FieldUpdates.Get("b")
	if fu.ChangeType != ChangeUpdate || fu.Field.(testField).Value != "beta2" {
		t.Errorf("Expected UPDATE to beta2, got %s %+v", fu.ChangeType, fu.Field)
	}

	if got := entry.FieldUpdates.Keys(); !reflect.DeepEqual(got, []string{"new", "b"}) {
		t.Errorf("Expected updates in insertion order, got %v", got)
	}
}

func TestAddFieldUpdateNeverDowngrades(t *testing.T) {
	state := mustReduce(t, initialState(t),
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "n"}, ChangeType: ChangeAdd},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "n"}, ChangeType: ChangeRemove},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "a"}, ChangeType: ChangeRemove},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "a", Value: "late edit"}, ChangeType: ChangeUpdate},
	)

	entry, _ := state.Live(pageURL)
	if fu, _ := entry.FieldUpdates.Get("n"); fu.ChangeType != ChangeRemove {
		t.Errorf("Expected REMOVE after ADD, got %s", fu.ChangeType)
	}
	fu, _ := entry.FieldUpdates.Get("a")
	if fu.ChangeType != ChangeRemove {
		t.Errorf("Expected REMOVE to survive UPDATE, got %s", fu.ChangeType)
	}
	if fu.Field.(testField).Value != "late edit" {
		t.Errorf("Expected latest field value to be kept, got %q", fu.Field.(testField).Value)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := initialState(t)
	beforeEntry, _ := before.Live(pageURL)

	_ = mustReduce(t, before,
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "a"}, ChangeType: ChangeUpdate},
		SetEditable{Url: pageURL, UUID: "b", Editable: true},
		SelectVirtualMetadata{Url: pageURL, Relationship: "rel-1", Item: "item-1", Selected: true},
	)

	entry, _ := before.Live(pageURL)
	if !reflect.DeepEqual(entry, beforeEntry) {
		t.Error("Expected original state to be untouched")
	}
	if entry.HasUpdates() {
		t.Error("Expected original entry to have no updates")
	}
}

func TestSetEditableAndValid(t *testing.T) {
	state := mustReduce(t, initialState(t),
		SetEditable{Url: pageURL, UUID: "a", Editable: true},
		SetValid{Url: pageURL, UUID: "b", Valid: false},
	)

	entry, _ := state.Live(pageURL)
	if fs, _ := entry.FieldStates.Get("a"); !fs.Editable {
		t.Error("Expected field a to be editable")
	}
	if entry.IsValid() {
		t.Error("Expected page to be invalid with field b invalid")
	}

	if _, err := Reduce(state, SetEditable{Url: pageURL, UUID: "missing", Editable: true}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Expected ErrUnknownField, got %v", err)
	}
	if _, err := Reduce(state, SetValid{Url: "/other", UUID: "a"}); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Expected ErrNoEntry, got %v", err)
	}
}

func TestSelectVirtualMetadata(t *testing.T) {
	state := mustReduce(t, initialState(t),
		SelectVirtualMetadata{Url: pageURL, Relationship: "rel-1", Item: "item-1", Selected: true},
		SelectVirtualMetadata{Url: pageURL, Relationship: "rel-1", Item: "item-2", Selected: false},
	)

	entry, _ := state.Live(pageURL)
	if !entry.VirtualMetadataSources["rel-1"]["item-1"] {
		t.Error("Expected item-1 to be selected")
	}
	if selected, ok := entry.VirtualMetadataSources["rel-1"]["item-2"]; !ok || selected {
		t.Error("Expected item-2 to be explicitly deselected")
	}
}

func editedState(t *testing.T) State {
	return mustReduce(t, initialState(t),
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "new", Value: "delta"}, ChangeType: ChangeAdd},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "a", Value: "alpha2"}, ChangeType: ChangeUpdate},
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "b"}, ChangeType: ChangeRemove},
		SetEditable{Url: pageURL, UUID: "a", Editable: true},
		SetValid{Url: pageURL, UUID: "c", Valid: false},
	)
}

func TestDiscardAndReinstateRoundTrip(t *testing.T) {
	state := editedState(t)
	before, _ := state.Live(pageURL)

	discarded := mustReduce(t, state, Discard{Url: pageURL, Notification: notify.New("", "", time.Second)})

	live, ok := discarded.Live(pageURL)
	if !ok {
		t.Fatal("Expected live entry to remain after discard")
	}
	if live.HasUpdates() {
		t.Error("Expected discard to clear updates")
	}
	if live.FieldStates.Has("new") {
		t.Error("Expected discard to strip new fields")
	}
	for uuid, fs := range live.FieldStates.All() {
		if fs.Editable || !fs.IsValid {
			t.Errorf("Field %s: expected non-editable valid state, got %+v", uuid, fs)
		}
	}

	trash, ok := discarded.Trash(pageURL)
	if !ok {
		t.Fatal("Expected trash entry after discard")
	}
	if !reflect.DeepEqual(trash, before) {
		t.Error("Expected trash to hold the pre-discard entry verbatim")
	}

	reinstated := mustReduce(t, discarded, Reinstate{Url: pageURL})

	after, _ := reinstated.Live(pageURL)
	if !reflect.DeepEqual(after, before) {
		t.Error("Expected reinstate to restore the pre-discard entry")
	}
	if _, ok := reinstated.Trash(pageURL); ok {
		t.Error("Expected trash to be deleted after reinstate")
	}
}

func TestDiscardTwiceOverwritesTrash(t *testing.T) {
	state := mustReduce(t, editedState(t), Discard{Url: pageURL})

	state = mustReduce(t, state,
		AddFieldUpdate{Url: pageURL, Field: testField{UUID: "c", Value: "second"}, ChangeType: ChangeUpdate},
	)
	second, _ := state.Live(pageURL)

	state = mustReduce(t, state, Discard{Url: pageURL})

	trash, _ := state.Trash(pageURL)
	if !reflect.DeepEqual(trash, second) {
		t.Error("Expected second discard to replace the first trash")
	}
	if trash.FieldUpdates.Has("a") {
		t.Error("Expected first discarded edits to be gone")
	}
}

func TestDiscardRequiresLiveEntry(t *testing.T) {
	state := State{}
	next, err := Reduce(state, Discard{Url: pageURL})
	if !errors.Is(err, ErrNoEntry) {
		t.Errorf("Expected ErrNoEntry, got %v", err)
	}
	if len(next) != 0 {
		t.Error("Expected state to be unchanged")
	}
}

func TestReinstateRequiresTrash(t *testing.T) {
	state := initialState(t)
	if _, err := Reduce(state, Reinstate{Url: pageURL}); !errors.Is(err, ErrNothingToReinstate) {
		t.Errorf("Expected ErrNothingToReinstate, got %v", err)
	}
}

func TestDiscardAll(t *testing.T) {
	state := mustReduce(t, editedState(t),
		Initialize{Url: "/items/5678/edit", Fields: []Identifiable{testField{UUID: "x"}}},
		AddFieldUpdate{Url: "/items/5678/edit", Field: testField{UUID: "x", Value: "y"}, ChangeType: ChangeUpdate},
		Discard{Url: pageURL, All: true},
	)

	for _, url := range []string{pageURL, "/items/5678/edit"} {
		if _, ok := state.Trash(url); !ok {
			t.Errorf("Expected trash for %s", url)
		}
		live, _ := state.Live(url)
		if live.HasUpdates() {
			t.Errorf("Expected no live updates for %s", url)
		}
	}
	if _, ok := state[TrashKey(TrashKey(pageURL))]; ok {
		t.Error("Expected trash entries not to be discarded themselves")
	}
}

func TestRemoveAndRemoveAll(t *testing.T) {
	state := mustReduce(t, editedState(t),
		Initialize{Url: "/other", Fields: nil},
		Discard{Url: pageURL, All: true},
	)

	removed := mustReduce(t, state, Remove{Url: pageURL})
	if _, ok := removed.Trash(pageURL); ok {
		t.Error("Expected trash of page to be removed")
	}
	if _, ok := removed.Trash("/other"); !ok {
		t.Error("Expected trash of other page to remain")
	}
	if _, ok := removed.Live(pageURL); !ok {
		t.Error("Expected live entry to remain")
	}

	// removing twice is harmless
	_ = mustReduce(t, removed, Remove{Url: pageURL})

	cleared := mustReduce(t, state, RemoveAll{})
	for key := range cleared {
		if IsTrashKey(key) {
			t.Errorf("Expected no trash keys, found %s", key)
		}
	}
}

func TestRemoveField(t *testing.T) {
	state := mustReduce(t, editedState(t),
		RemoveField{Url: pageURL, UUID: "new"},
		RemoveField{Url: pageURL, UUID: "a"},
	)

	entry, _ := state.Live(pageURL)
	if entry.FieldStates.Has("new") || entry.FieldUpdates.Has("new") {
		t.Error("Expected added field to be thrown away")
	}
	if entry.FieldUpdates.Has("a") {
		t.Error("Expected update of a to be dropped")
	}
	fs, ok := entry.FieldStates.Get("a")
	if !ok || fs.Editable || !fs.IsValid {
		t.Errorf("Expected a to be reset to non-editable valid, got %+v", fs)
	}
	if !entry.FieldUpdates.Has("b") {
		t.Error("Expected other updates to remain")
	}
}
