// Package models provides data model definitions for the vistoria core.
package models

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle state of an inspection draft.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Wizard step positions. Steps 1-4 match the capture flow:
// property form, rooms, review, report.
const (
	StepProperty = 1
	StepRooms    = 2
	StepReview   = 3
	StepReport   = 4
)

// PropertyData is the open-ended property attribute map captured by the
// wizard's first step. Keys are form field names (propertyCode, address...).
type PropertyData map[string]string

// IsEmpty reports whether no field carries a non-empty value.
func (p PropertyData) IsEmpty() bool {
	for _, v := range p {
		if v != "" {
			return false
		}
	}
	return true
}

// Inspection is one inspection draft: property metadata plus the rooms
// documented so far. It is the unit of storage and of remote sync.
type Inspection struct {
	ID           string         `json:"id"`
	Status       Status         `json:"status"`
	CurrentStep  int            `json:"currentStep"`
	PropertyData PropertyData   `json:"propertyData"`
	Rooms        []Room         `json:"rooms"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	CompletedAt  *time.Time     `json:"completedAt"`
	EditHistory  []HistoryEntry `json:"editHistory,omitempty"`
	PDFGenerated bool           `json:"pdfGenerated"`
}

// NewInspection returns an in-memory draft positioned at the first
// wizard step. The caller decides when (and whether) it gets persisted.
func NewInspection(id string) *Inspection {
	now := time.Now().UTC()
	return &Inspection{
		ID:           id,
		Status:       StatusInProgress,
		CurrentStep:  StepProperty,
		PropertyData: PropertyData{},
		Rooms:        []Room{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasContent reports whether the draft carries anything worth persisting.
// Empty drafts are never written durably (ghost record prevention).
func (i *Inspection) HasContent() bool {
	return !i.PropertyData.IsEmpty() || len(i.Rooms) > 0
}

// Touch bumps UpdatedAt. The timestamp is monotonically non-decreasing
// even if the wall clock steps backwards between saves.
func (i *Inspection) Touch() {
	now := time.Now().UTC()
	if now.After(i.UpdatedAt) {
		i.UpdatedAt = now
	} else {
		i.UpdatedAt = i.UpdatedAt.Add(time.Nanosecond)
	}
}

// AppendHistory records a lifecycle event. History is append-only;
// prior entries are never rewritten.
func (i *Inspection) AppendHistory(action HistoryAction, actor string) {
	i.EditHistory = append(i.EditHistory, HistoryEntry{
		Action:    action,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
	})
}

// Clone returns a deep copy, safe to hand to an async sync push while
// the caller keeps mutating the original.
func (i *Inspection) Clone() *Inspection {
	data, err := json.Marshal(i)
	if err != nil {
		cp := *i
		return &cp
	}
	var cp Inspection
	if err := json.Unmarshal(data, &cp); err != nil {
		cp := *i
		return &cp
	}
	return &cp
}
