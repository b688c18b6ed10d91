package update

import "errors"

var (
	// ErrNoEntry indicates an action that needs a live entry for a url that has none
	ErrNoEntry = errors.New("update: no live entry for url")

	// ErrNothingToReinstate indicates a reinstate without a trashed entry
	ErrNothingToReinstate = errors.New("update: nothing to reinstate for url")

	// ErrUnknownField indicates a field uuid the entry does not track
	ErrUnknownField = errors.New("update: unknown field")

	// ErrUnknownAction indicates an action the reducer cannot handle
	ErrUnknownAction = errors.New("update: unknown action")
)
