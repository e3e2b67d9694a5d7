package entities

import (
	"time"

	"github.com/google/uuid"
)

// InsightKind categorizes an extracted insight
type InsightKind string

const (
	InsightKindTask     InsightKind = "task"
	InsightKindDecision InsightKind = "decision"
	InsightKindRisk     InsightKind = "risk"
	InsightKindQuestion InsightKind = "question"
)

// InsightStatus tracks the lifecycle of an insight
type InsightStatus string

const (
	InsightStatusOpen       InsightStatus = "open"
	InsightStatusInProgress InsightStatus = "in_progress"
	InsightStatusDone       InsightStatus = "done"
	InsightStatusUnknown    InsightStatus = "unknown"
)

// StatusRank orders statuses by progress. Unknown ranks below everything
// so it can never override a known status.
func StatusRank(s InsightStatus) int {
	switch s {
	case InsightStatusOpen:
		return 1
	case InsightStatusInProgress:
		return 2
	case InsightStatusDone:
		return 3
	default:
		return 0
	}
}

// ExtractedRecord is the raw structured record returned by the completion
// service, before it becomes an Insight. Validated field-by-field; records
// violating the schema are dropped.
type ExtractedRecord struct {
	Kind        string  `json:"kind" validate:"required,oneof=task decision risk question"`
	Description string  `json:"description" validate:"required"`
	Owner       string  `json:"owner,omitempty"`
	DueDate     string  `json:"due_date,omitempty"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=open in_progress done unknown"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
	Quote       string  `json:"quote,omitempty"`
	Speaker     string  `json:"speaker,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// Insight is a single validated fact extracted from a transcript
type Insight struct {
	ID             uuid.UUID     `json:"id"`
	Kind           InsightKind   `json:"kind"`
	Description    string        `json:"description"`
	Owner          string        `json:"owner,omitempty"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	Status         InsightStatus `json:"status"`
	Confidence     float64       `json:"confidence"`
	Quote          string        `json:"quote,omitempty"`
	Speaker        string        `json:"speaker,omitempty"`
	Workstream     string        `json:"workstream,omitempty"`
	TranscriptID   string        `json:"transcript_id"`
	SourcePosition int           `json:"source_position"`
}

// NewInsight creates an Insight from a validated extraction record
func NewInsight(rec ExtractedRecord, transcriptID string, position int) *Insight {
	status := InsightStatus(rec.Status)
	if rec.Status == "" {
		status = InsightStatusUnknown
	}

	ins := &Insight{
		ID:             uuid.New(),
		Kind:           InsightKind(rec.Kind),
		Description:    rec.Description,
		Owner:          rec.Owner,
		Status:         status,
		Confidence:     rec.Confidence,
		Quote:          rec.Quote,
		Speaker:        rec.Speaker,
		TranscriptID:   transcriptID,
		SourcePosition: position,
	}

	if rec.DueDate != "" {
		if due, err := time.Parse("2006-01-02", rec.DueDate); err == nil {
			ins.DueDate = &due
		}
	}

	return ins
}
