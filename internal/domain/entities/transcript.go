package entities

import "time"

// Utterance represents a single speaker segment/turn in a conversation
type Utterance struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Transcript is a parsed meeting transcript. Immutable once built by the parser.
type Transcript struct {
	ID          string      `json:"id"`
	Title       string      `json:"title,omitempty"`
	MeetingDate time.Time   `json:"meeting_date"`
	SourceFile  string      `json:"source_file,omitempty"`
	Utterances  []Utterance `json:"utterances"`
}

// SpeakerCount returns the number of distinct speakers in the transcript
func (t *Transcript) SpeakerCount() int {
	seen := make(map[string]struct{})
	for _, u := range t.Utterances {
		seen[u.Speaker] = struct{}{}
	}
	return len(seen)
}
