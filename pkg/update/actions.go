// ABOUTME: Actions accepted by the edit tracking store
// ABOUTME: Each action targets a single page url

package update

import (
	"time"

	"github.com/nainya/editstore/pkg/notify"
)

// ActionType names an action for logging and metrics
type ActionType string

const (
	ActionInitialize            ActionType = "initialize"
	ActionAddFieldUpdate        ActionType = "add_field_update"
	ActionSelectVirtualMetadata ActionType = "select_virtual_metadata"
	ActionSetEditable           ActionType = "set_editable"
	ActionSetValid              ActionType = "set_valid"
	ActionDiscard               ActionType = "discard"
	ActionReinstate             ActionType = "reinstate"
	ActionRemove                ActionType = "remove"
	ActionRemoveAll             ActionType = "remove_all"
	ActionRemoveField           ActionType = "remove_field"
)

// Action is a request to change the store
type Action interface {
	Type() ActionType
	// URL is the page the action is filed against; empty for global actions
	URL() string
}

// Initialize snapshots the original fields of a page as neutral states
type Initialize struct {
	Url          string
	Fields       []Identifiable
	LastModified time.Time
	Compiler     PatchCompiler
}

// AddFieldUpdate records a pending change of one field
type AddFieldUpdate struct {
	Url        string
	Field      Identifiable
	ChangeType ChangeType
}

// SelectVirtualMetadata marks whether virtual metadata of an item, derived
// through a relationship, should be kept as real metadata
type SelectVirtualMetadata struct {
	Url          string
	Relationship string
	Item         string
	Selected     bool
}

// SetEditable toggles the editable flag of a field
type SetEditable struct {
	Url      string
	UUID     string
	Editable bool
}

// SetValid toggles the valid flag of a field
type SetValid struct {
	Url   string
	UUID  string
	Valid bool
}

// Discard moves the live entry of Url to its trash slot. With All set every
// live url is discarded.
type Discard struct {
	Url          string
	Notification notify.Notification
	All          bool
}

// Reinstate restores the trashed entry of Url as its live entry
type Reinstate struct {
	Url string
}

// Remove permanently drops the trashed entry of Url
type Remove struct {
	Url string
}

// RemoveAll permanently drops every trashed entry
type RemoveAll struct{}

// RemoveField drops the pending update of one field
type RemoveField struct {
	Url  string
	UUID string
}

func (Initialize) Type() ActionType            { return ActionInitialize }
func (AddFieldUpdate) Type() ActionType        { return ActionAddFieldUpdate }
func (SelectVirtualMetadata) Type() ActionType { return ActionSelectVirtualMetadata }
func (SetEditable) Type() ActionType           { return ActionSetEditable }
func (SetValid) Type() ActionType              { return ActionSetValid }
func (Discard) Type() ActionType               { return ActionDiscard }
func (Reinstate) Type() ActionType             { return ActionReinstate }
func (Remove) Type() ActionType                { return ActionRemove }
func (RemoveAll) Type() ActionType             { return ActionRemoveAll }
func (RemoveField) Type() ActionType           { return ActionRemoveField }

func (a Initialize) URL() string            { return a.Url }
func (a AddFieldUpdate) URL() string        { return a.Url }
func (a SelectVirtualMetadata) URL() string { return a.Url }
func (a SetEditable) URL() string           { return a.Url }
func (a SetValid) URL() string              { return a.Url }
func (a Discard) URL() string               { return a.Url }
func (a Reinstate) URL() string             { return a.Url }
func (a Remove) URL() string                { return a.Url }
func (RemoveAll) URL() string               { return "" }
func (a RemoveField) URL() string           { return a.Url }
