// ABOUTME: Edit tracking service exposed to page collaborators
// ABOUTME: Records field edits per url and exposes merged live views

package update

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/editstore/pkg/notify"
	"github.com/nainya/editstore/pkg/patch"
)

// Loggers hands out loggers tagged with a component name
type Loggers interface {
	Component(name string) zerolog.Logger
}

// Options configures a Service
type Options struct {
	// Logger defaults to disabled logging
	Logger Loggers
	// Notifications receives dismissals of undo handles; optional
	Notifications *notify.Center
	// OnAction is called after every dispatch with its result
	OnAction func(action ActionType, err error)
	// OnUndo is called when an undo window closes
	OnUndo func(url string, outcome Outcome)
}

// Service tracks speculative edits for pages, keyed by page url
type Service struct {
	store       *Store
	coordinator *Coordinator
	log         zerolog.Logger
	onAction    func(ActionType, error)
}

// NewService creates a service with its own store and undo coordinator
func NewService(opts Options) *Service {
	log, undoLog := zerolog.Nop(), zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.Component("object_updates")
		undoLog = opts.Logger.Component("undo")
	}

	s := &Service{
		store:    NewStore(),
		log:      log,
		onAction: opts.OnAction,
	}
	s.coordinator = NewCoordinator(s.store, s.dispatch, opts.Notifications, undoLog, opts.OnUndo)
	return s
}

// Store exposes the underlying store
func (s *Service) Store() *Store {
	return s.store
}

// Close stops pending undo windows without committing them
func (s *Service) Close() {
	s.coordinator.Close()
}

func (s *Service) dispatch(a Action) error {
	err := s.store.Dispatch(a)
	if s.onAction != nil {
		s.onAction(a.Type(), err)
	}
	if err != nil {
		s.log.Error().
			Err(err).
			Str("action", string(a.Type())).
			Str("url", a.URL()).
			Msg("object update action rejected")
		return err
	}
	s.log.Debug().
		Str("action", string(a.Type())).
		Str("url", a.URL()).
		Msg("object update action applied")
	return nil
}

func (s *Service) entry(state State, url string) Entry {
	e, _ := state.Live(url)
	return e
}

// Initialize starts tracking url with fields as neutral originals. compiler
// may be nil, in which case CompilePatch yields an empty patch.
func (s *Service) Initialize(url string, fields []Identifiable, lastModified time.Time, compiler PatchCompiler) error {
	return s.dispatch(Initialize{Url: url, Fields: fields, LastModified: lastModified, Compiler: compiler})
}

// SaveFieldUpdate records a change of field, merged with any earlier change
func (s *Service) SaveFieldUpdate(url string, field Identifiable, changeType ChangeType) error {
	return s.dispatch(AddFieldUpdate{Url: url, Field: field, ChangeType: changeType})
}

// SaveAddFieldUpdate records field as newly added
func (s *Service) SaveAddFieldUpdate(url string, field Identifiable) error {
	return s.SaveFieldUpdate(url, field, ChangeAdd)
}

// SaveRemoveFieldUpdate records field as removed
func (s *Service) SaveRemoveFieldUpdate(url string, field Identifiable) error {
	return s.SaveFieldUpdate(url, field, ChangeRemove)
}

// SaveChangeFieldUpdate records a new value for field
func (s *Service) SaveChangeFieldUpdate(url string, field Identifiable) error {
	return s.SaveFieldUpdate(url, field, ChangeUpdate)
}

// GetFieldUpdates streams the updates of every tracked field of url, with the
// fields of initialFields that have no update reported as neutral. With
// ignoreStates, only fields holding an update are reported beside the
// initial ones.
func (s *Service) GetFieldUpdates(url string, initialFields []Identifiable, ignoreStates bool) Stream[FieldUpdates] {
	return NewStream(s.store, func(state State) FieldUpdates {
		entry := s.entry(state, url)

		keys := entry.FieldStates.Keys()
		if ignoreStates {
			keys = entry.FieldUpdates.Keys()
		}
		out := FieldUpdates{}
		for _, uuid := range keys {
			if fu, ok := entry.FieldUpdates.Get(uuid); ok {
				out = out.With(uuid, fu)
			}
		}
		for uuid, fu := range exclusive(entry, initialFields).All() {
			out = out.With(uuid, fu)
		}
		return out
	}, nil)
}

// GetFieldUpdatesExclusive streams the updates of initialFields only
func (s *Service) GetFieldUpdatesExclusive(url string, initialFields []Identifiable) Stream[FieldUpdates] {
	return NewStream(s.store, func(state State) FieldUpdates {
		return exclusive(s.entry(state, url), initialFields)
	}, nil)
}

func exclusive(entry Entry, initialFields []Identifiable) FieldUpdates {
	out := FieldUpdates{}
	for _, f := range initialFields {
		fu, ok := entry.FieldUpdates.Get(f.GetUUID())
		if !ok {
			fu = FieldUpdate{Field: f, ChangeType: ChangeNone}
		}
		out = out.With(f.GetUUID(), fu)
	}
	return out
}

// GetUpdatedFields streams the effective field list of url: every tracked
// field in state order, removed ones left out, updated ones replaced by
// their pending value
func (s *Service) GetUpdatedFields(url string, initialFields []Identifiable) Stream[[]Identifiable] {
	byUUID := make(map[string]Identifiable, len(initialFields))
	for _, f := range initialFields {
		byUUID[f.GetUUID()] = f
	}

	return NewStream(s.store, func(state State) []Identifiable {
		entry := s.entry(state, url)
		fields := make([]Identifiable, 0, entry.FieldStates.Len())
		for _, uuid := range entry.FieldStates.Keys() {
			fu, ok := entry.FieldUpdates.Get(uuid)
			switch {
			case ok && fu.ChangeType == ChangeRemove:
				continue
			case ok:
				fields = append(fields, fu.Field)
			default:
				if f, known := byUUID[uuid]; known {
					fields = append(fields, f)
				}
			}
		}
		return fields
	}, nil)
}

// IsEditable streams whether the field is being edited
func (s *Service) IsEditable(url, uuid string) Stream[bool] {
	return NewStream(s.store, func(state State) bool {
		fs, _ := s.entry(state, url).FieldStates.Get(uuid)
		return fs.Editable
	}, equalBool)
}

// IsValid streams whether the field holds a valid value
func (s *Service) IsValid(url, uuid string) Stream[bool] {
	return NewStream(s.store, func(state State) bool {
		fs, _ := s.entry(state, url).FieldStates.Get(uuid)
		return fs.IsValid
	}, equalBool)
}

// IsValidPage streams whether every field of url is valid
func (s *Service) IsValidPage(url string) Stream[bool] {
	return NewStream(s.store, func(state State) bool {
		return s.entry(state, url).IsValid()
	}, equalBool)
}

// SetEditableFieldUpdate toggles editing of a field
func (s *Service) SetEditableFieldUpdate(url, uuid string, editable bool) error {
	return s.dispatch(SetEditable{Url: url, UUID: uuid, Editable: editable})
}

// SetValidFieldUpdate toggles validity of a field
func (s *Service) SetValidFieldUpdate(url, uuid string, valid bool) error {
	return s.dispatch(SetValid{Url: url, UUID: uuid, Valid: valid})
}

// IsSelectedVirtualMetadata streams whether the virtual metadata item
// derived through relationship is selected to be kept
func (s *Service) IsSelectedVirtualMetadata(url, relationship, item string) Stream[bool] {
	return NewStream(s.store, func(state State) bool {
		return s.entry(state, url).VirtualMetadataSources[relationship][item]
	}, equalBool)
}

// SetSelectedVirtualMetadata marks virtual metadata of item as kept or not
func (s *Service) SetSelectedVirtualMetadata(url, relationship, item string, selected bool) error {
	return s.dispatch(SelectVirtualMetadata{Url: url, Relationship: relationship, Item: item, Selected: selected})
}

// DiscardFieldUpdates moves the edits of url to trash and opens an undo
// window lasting n.Timeout
func (s *Service) DiscardFieldUpdates(url string, n notify.Notification) error {
	return s.dispatch(Discard{Url: url, Notification: n})
}

// DiscardAllFieldUpdates discards the edits of every url, with the undo
// window tied to url
func (s *Service) DiscardAllFieldUpdates(url string, n notify.Notification) error {
	return s.dispatch(Discard{Url: url, Notification: n, All: true})
}

// ReinstateFieldUpdates restores the discarded edits of url
func (s *Service) ReinstateFieldUpdates(url string) error {
	return s.dispatch(Reinstate{Url: url})
}

// RemoveSingleFieldUpdate drops the pending update of one field
func (s *Service) RemoveSingleFieldUpdate(url, uuid string) error {
	return s.dispatch(RemoveField{Url: url, UUID: uuid})
}

// HasUpdates streams whether url holds pending updates
func (s *Service) HasUpdates(url string) Stream[bool] {
	return NewStream(s.store, func(state State) bool {
		return s.entry(state, url).HasUpdates()
	}, equalBool)
}

// IsReinstatable streams whether discarded edits of url can be reinstated
func (s *Service) IsReinstatable(url string) Stream[bool] {
	return s.HasUpdates(TrashKey(url))
}

// GetLastModified streams the server modification time recorded for url
func (s *Service) GetLastModified(url string) Stream[time.Time] {
	return NewStream(s.store, func(state State) time.Time {
		return s.entry(state, url).LastModified
	}, func(a, b time.Time) bool { return a.Equal(b) })
}

// CompilePatch turns the pending updates of url into a patch using the
// compiler registered at initialization. Without a compiler the patch is
// empty.
func (s *Service) CompilePatch(url string) (patch.List, error) {
	entry, ok := s.store.State().Live(url)
	if !ok || entry.Compiler == nil {
		return patch.List{}, nil
	}

	ops, err := entry.Compiler.Compile(entry.FieldUpdates)
	if err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("failed to compile patch")
		return nil, err
	}
	s.log.Debug().
		Str("url", url).
		Int("updates", entry.FieldUpdates.Len()).
		Int("operations", len(ops)).
		Msg("patch compiled")
	return ops, nil
}
