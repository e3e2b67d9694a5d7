package classify

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

const classificationInstruction = `You assign meeting insights to project workstreams.
Pick the best-matching workstream from the known list, or propose a short new
label when none fits. Prefer an existing workstream over inventing a new one.

Respond with a single JSON object and nothing else:
{"workstream": "", "confidence": 0.0, "is_new": false}`

// classificationPrompt builds the labeling prompt for one insight
func classificationPrompt(ins *entities.Insight, tr *entities.Transcript, known []*entities.Workstream) string {
	var b strings.Builder
	b.WriteString(classificationInstruction)

	b.WriteString("\n\nKnown workstreams:\n")
	if len(known) == 0 {
		b.WriteString("(none yet)\n")
	}
	for _, ws := range known {
		if len(ws.Aliases) > 0 {
			fmt.Fprintf(&b, "- %s (also called: %s)\n", ws.Name, strings.Join(ws.Aliases, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", ws.Name)
		}
	}

	if tr != nil {
		fmt.Fprintf(&b, "\nMeeting: %s (%s)\n", tr.Title, tr.MeetingDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nInsight (%s): %s\n", ins.Kind, ins.Description)
	return b.String()
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
