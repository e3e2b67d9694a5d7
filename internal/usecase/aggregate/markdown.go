package aggregate

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

var sectionTitles = []struct {
	kind  entities.InsightKind
	title string
}{
	{entities.InsightKindDecision, "Decisions"},
	{entities.InsightKindTask, "Tasks"},
	{entities.InsightKindRisk, "Risks"},
	{entities.InsightKindQuestion, "Questions"},
}

// RenderMarkdown converts a project summary into a human-readable report
func RenderMarkdown(summary *entities.ProjectSummary) string {
	var md []string
	md = append(md, fmt.Sprintf("# %s — Status Summary", summary.Workstream))
	md = append(md, fmt.Sprintf("_Generated %s_\n", summary.GeneratedAt.Format("2006-01-02 15:04")))

	for _, section := range sectionTitles {
		md = append(md, fmt.Sprintf("## %s", section.title))
		found := false
		for _, entry := range summary.Entries {
			if entry.Kind != section.kind {
				continue
			}
			found = true
			md = append(md, fmt.Sprintf("- **%s** — %s", entry.Description, entry.Status))
			if entry.Owner != "" {
				md = append(md, fmt.Sprintf("  - Owner: %s", entry.Owner))
			}
			if entry.DueDate != nil {
				md = append(md, fmt.Sprintf("  - Due: %s", entry.DueDate.Format("2006-01-02")))
			}
			md = append(md, fmt.Sprintf("  - Meetings: %s", formatDates(entry)))
		}
		if !found {
			md = append(md, "No items found.")
		}
		md = append(md, "")
	}

	return strings.Join(md, "\n")
}

// formatDates renders the provenance trail as unique, ordered meeting dates
func formatDates(entry entities.SummaryEntry) string {
	seen := make(map[string]struct{})
	var dates []string
	for _, d := range entry.MeetingDates {
		s := d.Format("2006-01-02")
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dates = append(dates, s)
	}
	if len(dates) == 0 {
		return entry.CreatedAt.Format("2006-01-02")
	}
	return strings.Join(dates, ", ")
}
