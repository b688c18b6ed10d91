// ABOUTME: Edit tracking data model
// ABOUTME: Change types, field updates, field states and per-url entries

package update

//go:generate go tool stringer -type=ChangeType -linecomment

import (
	"fmt"
	"strings"
	"time"

	"github.com/nainya/editstore/pkg/patch"
)

// TrashSuffix is appended to a url to address its discarded snapshot
const TrashSuffix = "/trash"

// Identifiable is anything whose edits can be tracked
type Identifiable interface {
	GetUUID() string
}

// ChangeType classifies a pending edit. Values are ordered by severity so a
// merge keeps the larger one.
type ChangeType int

const (
	ChangeNone   ChangeType = iota // NONE
	ChangeUpdate                   // UPDATE
	ChangeAdd                      // ADD
	ChangeRemove                   // REMOVE
)

// Valid reports whether c is one of the three real change kinds
func (c ChangeType) Valid() bool {
	return c == ChangeUpdate || c == ChangeAdd || c == ChangeRemove
}

// Merge combines an existing change with a new one without ever lowering
// severity. ChangeNone on either side yields the other.
func Merge(existing, next ChangeType) ChangeType {
	if next == ChangeNone {
		return existing
	}
	if existing == ChangeNone {
		return next
	}
	if existing > next {
		return existing
	}
	return next
}

// MarshalText implements encoding.TextMarshaler
func (c ChangeType) MarshalText() ([]byte, error) {
	if c != ChangeNone && !c.Valid() {
		return nil, fmt.Errorf("update: invalid change type %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *ChangeType) UnmarshalText(b []byte) error {
	parsed, err := ParseChangeType(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChangeType reads the textual form, case-insensitively. The empty
// string parses as ChangeNone.
func ParseChangeType(s string) (ChangeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return ChangeNone, nil
	case "UPDATE":
		return ChangeUpdate, nil
	case "ADD":
		return ChangeAdd, nil
	case "REMOVE":
		return ChangeRemove, nil
	}
	return ChangeNone, fmt.Errorf("update: unknown change type %q", s)
}

// FieldUpdate is the pending replacement value of a field
type FieldUpdate struct {
	Field      Identifiable
	ChangeType ChangeType
}

// FieldState is the UI-facing status of a field
type FieldState struct {
	Editable bool
	IsNew    bool
	IsValid  bool
}

// FieldUpdates maps field uuid to its pending update, in insertion order
type FieldUpdates = Ordered[FieldUpdate]

// FieldStates maps field uuid to its state, in insertion order
type FieldStates = Ordered[FieldState]

// PatchCompiler turns the pending updates of an entry into a patch
type PatchCompiler interface {
	Compile(updates FieldUpdates) (patch.List, error)
}

// Entry is the edit state of one page url. Entries are never mutated in
// place; every change produces a new Entry.
type Entry struct {
	FieldStates  FieldStates
	FieldUpdates FieldUpdates
	// relationship id -> item uuid -> selected
	VirtualMetadataSources map[string]map[string]bool
	LastModified           time.Time
	Compiler               PatchCompiler
}

// HasUpdates reports whether any field update is pending
func (e Entry) HasUpdates() bool {
	return e.FieldUpdates.Len() > 0
}

// IsValid reports whether every field state is valid
func (e Entry) IsValid() bool {
	for _, st := range e.FieldStates.All() {
		if !st.IsValid {
			return false
		}
	}
	return true
}

func (e Entry) cloneSources() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(e.VirtualMetadataSources))
	for rel, items := range e.VirtualMetadataSources {
		inner := make(map[string]bool, len(items))
		for k, v := range items {
			inner[k] = v
		}
		out[rel] = inner
	}
	return out
}

// State is the whole store content keyed by url, trash entries included
type State map[string]Entry

// Live returns the entry for url
func (s State) Live(url string) (Entry, bool) {
	e, ok := s[url]
	return e, ok
}

// Trash returns the discarded snapshot for url
func (s State) Trash(url string) (Entry, bool) {
	e, ok := s[TrashKey(url)]
	return e, ok
}

func (s State) clone() State {
	out := make(State, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// TrashKey derives the key of the trash entry of url
func TrashKey(url string) string {
	return url + TrashSuffix
}

// IsTrashKey reports whether key addresses a trash entry
func IsTrashKey(key string) bool {
	return strings.HasSuffix(key, TrashSuffix)
}
