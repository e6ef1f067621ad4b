package visit

// State identifies where a visit is in its lifecycle. Transitions are
// one-way: initialized -> started -> {canceled | failed | completed}.
type State string

const (
	StateInitialized State = "initialized"
	StateStarted     State = "started"
	StateCanceled    State = "canceled"
	StateFailed      State = "failed"
	StateCompleted   State = "completed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateCanceled, StateFailed, StateCompleted:
		return true
	}
	return false
}

// Action describes how a visit manipulates browser history.
type Action string

const (
	// ActionAdvance pushes a new history entry.
	ActionAdvance Action = "advance"
	// ActionReplace replaces the current history entry.
	ActionReplace Action = "replace"
	// ActionRestore returns to an existing history entry, typically with a
	// cached snapshot and a previously captured restoration identifier.
	ActionRestore Action = "restore"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionAdvance, ActionReplace, ActionRestore:
		return true
	}
	return false
}

// Kind selects the strategy a visit is driven by. The set is closed: a
// navigation is either a full document load or a script-driven transition
// inside the page that is already loaded.
type Kind string

const (
	KindFullPage Kind = "full_page"
	KindScripted Kind = "scripted"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindFullPage || k == KindScripted
}
