package extract

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

const extractionInstruction = `You are an expert at analyzing meeting transcripts.
Extract every task, decision, risk and open question from the transcript excerpt below.

For each insight:
- kind: one of "task", "decision", "risk", "question"
- description: a clear one-line summary
- owner: the person responsible, if stated (otherwise empty)
- due_date: YYYY-MM-DD if a date is stated (otherwise empty)
- status: one of "open", "in_progress", "done", "unknown"
- confidence: your confidence in this insight, between 0 and 1
- quote: the exact supporting quote from the transcript
- speaker: who said it (use the labels from the excerpt)
- position: the utterance number in square brackets the insight comes from

Respond with a single JSON object and nothing else:
{"insights": [{"kind": "", "description": "", "owner": "", "due_date": "", "status": "", "confidence": 0.0, "quote": "", "speaker": "", "position": 0}]}
If the excerpt contains no insights, respond with {"insights": []}.`

const correctiveInstruction = `Your previous reply could not be parsed as the required JSON.
Reply again with ONLY the JSON object described below. No prose, no markdown fences.`

// renderWindow formats a window of utterances with their position markers
func renderWindow(utterances []entities.Utterance) string {
	var b strings.Builder
	for _, u := range utterances {
		fmt.Fprintf(&b, "[%d] %s: %s\n", u.Position, u.Speaker, u.Text)
	}
	return b.String()
}

// extractionPrompt builds the initial prompt for a window
func extractionPrompt(window []entities.Utterance) string {
	return fmt.Sprintf("%s\n\nTranscript excerpt:\n\n%s", extractionInstruction, renderWindow(window))
}

// correctivePrompt builds the follow-up prompt after a malformed response
func correctivePrompt(window []entities.Utterance, badResponse string) string {
	if len(badResponse) > 500 {
		badResponse = badResponse[:500]
	}
	return fmt.Sprintf("%s\n\n%s\n\nYour previous reply was:\n%s\n\nTranscript excerpt:\n\n%s",
		correctiveInstruction, extractionInstruction, badResponse, renderWindow(window))
}
