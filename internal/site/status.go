// internal/site/status.go
//
// Explicit lifecycle for the site record.
//
// Context
// -------
// The lifecycle is created → generated → published, with error as a
// terminal state reachable from anywhere.  Transitions are declared in a
// table and checked by the store before any status write; out-of-order
// moves are rejected instead of being inferred from which fields happen to
// be populated.

package site

import "fmt"

// Status tags where a site sits in its lifecycle.
type Status string

const (
	StatusCreated   Status = "created"   // upstream site exists, nothing generated
	StatusGenerated Status = "generated" // full generation done, site_url known
	StatusPublished Status = "published" // pages published, site live
	StatusError     Status = "error"     // terminal failure, manual replay needed
)

// transitions lists the legal moves.  Self-transitions are allowed so an
// idempotent re-trigger of a step is not an error.
var transitions = map[Status][]Status{
	StatusCreated:   {StatusCreated, StatusGenerated, StatusError},
	StatusGenerated: {StatusGenerated, StatusPublished, StatusError},
	StatusPublished: {StatusPublished, StatusError},
	StatusError:     {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether s → to is a legal move.
func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// ErrBadTransition is returned by the store when a status write would skip
// or rewind the lifecycle.
type ErrBadTransition struct {
	From, To Status
}

func (e *ErrBadTransition) Error() string {
	return fmt.Sprintf("site: illegal status transition %s to %s", e.From, e.To)
}
