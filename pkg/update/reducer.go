// ABOUTME: Pure state transitions of the edit tracking store
// ABOUTME: Every transition replaces whole entries, never mutating the input state

package update

import "fmt"

// Reduce applies action to state and returns the next state. On error the
// input state is returned unchanged.
func Reduce(state State, action Action) (State, error) {
	switch a := action.(type) {
	case Initialize:
		return initialize(state, a), nil
	case AddFieldUpdate:
		return addFieldUpdate(state, a), nil
	case SelectVirtualMetadata:
		return selectVirtualMetadata(state, a), nil
	case SetEditable:
		return setFieldState(state, a.Url, a.UUID, func(fs FieldState) FieldState {
			fs.Editable = a.Editable
			return fs
		})
	case SetValid:
		return setFieldState(state, a.Url, a.UUID, func(fs FieldState) FieldState {
			fs.IsValid = a.Valid
			return fs
		})
	case Discard:
		if a.All {
			return discardAll(state), nil
		}
		return discard(state, a.Url)
	case Reinstate:
		return reinstate(state, a.Url)
	case Remove:
		return remove(state, a.Url), nil
	case RemoveAll:
		return removeAll(state), nil
	case RemoveField:
		return removeField(state, a), nil
	}
	return state, fmt.Errorf("%w: %T", ErrUnknownAction, action)
}

func initialize(state State, a Initialize) State {
	states := FieldStates{}
	for _, f := range a.Fields {
		states = states.With(f.GetUUID(), FieldState{Editable: false, IsNew: false, IsValid: true})
	}

	next := state.clone()
	next[a.Url] = Entry{
		FieldStates:            states,
		FieldUpdates:           FieldUpdates{},
		VirtualMetadataSources: map[string]map[string]bool{},
		LastModified:           a.LastModified,
		Compiler:               a.Compiler,
	}
	return next
}

func addFieldUpdate(state State, a AddFieldUpdate) State {
	entry := state[a.Url]
	uuid := a.Field.GetUUID()

	if a.ChangeType == ChangeAdd {
		entry.FieldStates = entry.FieldStates.With(uuid, FieldState{Editable: true, IsNew: true, IsValid: true})
	}

	existing, _ := entry.FieldUpdates.Get(uuid)
	entry.FieldUpdates = entry.FieldUpdates.With(uuid, FieldUpdate{
		Field:      a.Field,
		ChangeType: Merge(existing.ChangeType, a.ChangeType),
	})

	next := state.clone()
	next[a.Url] = entry
	return next
}

func selectVirtualMetadata(state State, a SelectVirtualMetadata) State {
	entry := state[a.Url]
	sources := entry.cloneSources()
	if sources[a.Relationship] == nil {
		sources[a.Relationship] = map[string]bool{}
	}
	sources[a.Relationship][a.Item] = a.Selected
	entry.VirtualMetadataSources = sources

	next := state.clone()
	next[a.Url] = entry
	return next
}

func setFieldState(state State, url, uuid string, change func(FieldState) FieldState) (State, error) {
	entry, ok := state[url]
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrNoEntry, url)
	}
	fs, ok := entry.FieldStates.Get(uuid)
	if !ok {
		return state, fmt.Errorf("%w: %s on %s", ErrUnknownField, uuid, url)
	}
	entry.FieldStates = entry.FieldStates.With(uuid, change(fs))

	next := state.clone()
	next[url] = entry
	return next, nil
}

// discardEntry builds the live entry left behind by a discard: no updates,
// no new fields, every remaining field reset to non-editable and valid
func discardEntry(entry Entry) Entry {
	cleared := entry
	cleared.FieldUpdates = FieldUpdates{}
	cleared.FieldStates = entry.FieldStates.
		Filter(func(_ string, fs FieldState) bool { return !fs.IsNew }).
		Map(func(_ string, fs FieldState) FieldState {
			fs.Editable = false
			fs.IsValid = true
			return fs
		})
	return cleared
}

func discard(state State, url string) (State, error) {
	if IsTrashKey(url) {
		return state, fmt.Errorf("%w: %s is a trash key", ErrNoEntry, url)
	}
	entry, ok := state[url]
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrNoEntry, url)
	}

	next := state.clone()
	next[url] = discardEntry(entry)
	next[TrashKey(url)] = entry
	return next, nil
}

func discardAll(state State) State {
	next := state.clone()
	for url, entry := range state {
		if IsTrashKey(url) {
			continue
		}
		next[url] = discardEntry(entry)
		next[TrashKey(url)] = entry
	}
	return next
}

func reinstate(state State, url string) (State, error) {
	trash, ok := state.Trash(url)
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrNothingToReinstate, url)
	}

	next := state.clone()
	next[url] = trash
	delete(next, TrashKey(url))
	return next, nil
}

func remove(state State, url string) State {
	if _, ok := state.Trash(url); !ok {
		return state
	}
	next := state.clone()
	delete(next, TrashKey(url))
	return next
}

func removeAll(state State) State {
	next := state.clone()
	for key := range state {
		if IsTrashKey(key) {
			delete(next, key)
		}
	}
	return next
}

func removeField(state State, a RemoveField) State {
	entry, ok := state[a.Url]
	if !ok {
		return state
	}

	entry.FieldUpdates = entry.FieldUpdates.Without(a.UUID)
	if fs, ok := entry.FieldStates.Get(a.UUID); ok {
		if fs.IsNew {
			entry.FieldStates = entry.FieldStates.Without(a.UUID)
		} else {
			fs.Editable = false
			fs.IsValid = true
			entry.FieldStates = entry.FieldStates.With(a.UUID, fs)
		}
	}

	next := state.clone()
	next[a.Url] = entry
	return next
}
