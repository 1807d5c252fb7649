// Package sync mirrors local record-store operations to the remote
// inspection API, best-effort.
package sync

// OutcomeKind tags the result of a remote push.
type OutcomeKind string

const (
	// OutcomeUpdated means the remote record existed and was updated.
	OutcomeUpdated OutcomeKind = "updated"
	// OutcomeCreated means the remote reported not-found and the push
	// fell back to create.
	OutcomeCreated OutcomeKind = "created_after_not_found"
	// OutcomeSkipped means sync is not configured (no credential or no
	// base URL) and the push short-circuited to a no-op.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed means the remote call failed; the error is logged
	// and absorbed, never propagated to the local write path.
	OutcomeFailed OutcomeKind = "failed"
)

// PushOutcome is the first-class result of Push: the fallback-to-create
// branch is an explicit case, not an inference from a falsy return.
type PushOutcome struct {
	Kind OutcomeKind
	Err  error
}

// Synced reports whether the remote now holds the pushed snapshot.
func (o PushOutcome) Synced() bool {
	return o.Kind == OutcomeUpdated || o.Kind == OutcomeCreated
}
