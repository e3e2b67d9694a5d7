package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProvenanceChange describes what a meeting did to a logical item
type ProvenanceChange string

const (
	ProvenanceCreated   ProvenanceChange = "created"
	ProvenanceUpdated   ProvenanceChange = "updated"
	ProvenanceConfirmed ProvenanceChange = "confirmed"
	ProvenanceConflict  ProvenanceChange = "conflict"
)

// ProvenanceEntry records one meeting's contribution to a logical item
type ProvenanceEntry struct {
	TranscriptID string           `json:"transcript_id"`
	MeetingDate  time.Time        `json:"meeting_date"`
	Change       ProvenanceChange `json:"change"`
	Note         string           `json:"note,omitempty"`
}

// ReconciledItem is a logical item: the identity of an insight across time,
// distinct from any one meeting's mention of it.
type ReconciledItem struct {
	ID          uuid.UUID         `json:"id"`
	Kind        InsightKind       `json:"kind"`
	Description string            `json:"description"`
	Owner       string            `json:"owner,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Status      InsightStatus     `json:"status"`
	Confidence  float64           `json:"confidence"`
	CreatedAt   time.Time         `json:"created_at"` // meeting date of first mention
	UpdatedAt   time.Time         `json:"updated_at"` // meeting date of latest accepted update
	Provenance  []ProvenanceEntry `json:"provenance"`
}

// NewReconciledItem starts a logical item from its first mention
func NewReconciledItem(ins *Insight, meetingDate time.Time) *ReconciledItem {
	return &ReconciledItem{
		ID:          uuid.New(),
		Kind:        ins.Kind,
		Description: ins.Description,
		Owner:       ins.Owner,
		DueDate:     ins.DueDate,
		Status:      ins.Status,
		Confidence:  ins.Confidence,
		CreatedAt:   meetingDate,
		UpdatedAt:   meetingDate,
		Provenance: []ProvenanceEntry{
			{
				TranscriptID: ins.TranscriptID,
				MeetingDate:  meetingDate,
				Change:       ProvenanceCreated,
			},
		},
	}
}

// Workstream is a named grouping of related insights representing one
// project/topic thread. It exclusively owns its item history.
type Workstream struct {
	Name      string            `json:"name"`
	Aliases   []string          `json:"aliases,omitempty"`
	Items     []*ReconciledItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewWorkstream creates a workstream on first encounter of a novel label
func NewWorkstream(name string) *Workstream {
	now := time.Now()
	return &Workstream{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MatchesLabel reports whether the label matches the workstream name or one
// of its aliases, case-insensitively.
func (w *Workstream) MatchesLabel(label string) bool {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == strings.ToLower(w.Name) {
		return true
	}
	for _, a := range w.Aliases {
		if label == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// AddAlias records a label variant that classified into this workstream
func (w *Workstream) AddAlias(alias string) {
	alias = strings.TrimSpace(alias)
	if alias == "" || w.MatchesLabel(alias) {
		return
	}
	w.Aliases = append(w.Aliases, alias)
}
