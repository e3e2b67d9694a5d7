package entities

import (
	"time"

	"github.com/google/uuid"
)

// SummaryEntry is the current state of one logical item
type SummaryEntry struct {
	ItemID       uuid.UUID     `json:"item_id"`
	Kind         InsightKind   `json:"kind"`
	Description  string        `json:"description"`
	Owner        string        `json:"owner,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	Status       InsightStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	MeetingDates []time.Time   `json:"meeting_dates"` // provenance trail
}

// ProjectSummary is a read-only projection of a workstream's reconciled
// history. Rebuilt every run, never persisted incrementally.
type ProjectSummary struct {
	Workstream  string         `json:"workstream"`
	GeneratedAt time.Time      `json:"generated_at"`
	Entries     []SummaryEntry `json:"entries"`
}
