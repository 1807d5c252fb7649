package models

import "time"

// HistoryAction identifies a lifecycle event recorded in a draft's
// edit history.
type HistoryAction string

const (
	ActionFinalized HistoryAction = "finalized"
	ActionReopened  HistoryAction = "reopened"
)

// HistoryEntry is one append-only edit-history event. Finalize/reopen
// cycles are traceable through these entries.
type HistoryEntry struct {
	Action    HistoryAction `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	Actor     string        `json:"actor,omitempty"`
}
