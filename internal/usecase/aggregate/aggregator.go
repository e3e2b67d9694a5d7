package aggregate

import (
	"sort"
	"time"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

// kindOrder fixes the group order of summary entries: decisions first, then
// tasks, risks and questions
var kindOrder = map[entities.InsightKind]int{
	entities.InsightKindDecision: 0,
	entities.InsightKindTask:     1,
	entities.InsightKindRisk:     2,
	entities.InsightKindQuestion: 3,
}

// Aggregator renders reconciled workstream histories into summaries. Pure
// projection: it never mutates the workstream.
type Aggregator struct {
	now func() time.Time
}

// NewAggregator creates an Aggregator. nowFn may be nil for wall-clock time.
func NewAggregator(nowFn func() time.Time) *Aggregator {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Aggregator{now: nowFn}
}

// BuildSummary projects a workstream's history into one entry per logical
// item, ordered by kind group, then creation date, then description.
func (a *Aggregator) BuildSummary(ws *entities.Workstream) *entities.ProjectSummary {
	entries := make([]entities.SummaryEntry, 0, len(ws.Items))
	for _, item := range ws.Items {
		entry := entities.SummaryEntry{
			ItemID:      item.ID,
			Kind:        item.Kind,
			Description: item.Description,
			Owner:       item.Owner,
			DueDate:     item.DueDate,
			Status:      item.Status,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
		for _, p := range item.Provenance {
			entry.MeetingDates = append(entry.MeetingDates, p.MeetingDate)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if kindOrder[entries[i].Kind] != kindOrder[entries[j].Kind] {
			return kindOrder[entries[i].Kind] < kindOrder[entries[j].Kind]
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].Description < entries[j].Description
	})

	return &entities.ProjectSummary{
		Workstream:  ws.Name,
		GeneratedAt: a.now(),
		Entries:     entries,
	}
}
