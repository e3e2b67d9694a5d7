package transcript

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a transcript file
type FrontMatter struct {
	MeetingDate string `yaml:"meeting_date"`
	Title       string `yaml:"title"`
}

// SplitFrontMatter separates an optional leading YAML front-matter block
// (fenced by "---" lines) from the transcript body. A malformed block is
// treated as body text so the speaker scan still sees it.
func SplitFrontMatter(raw string) (FrontMatter, string) {
	var fm FrontMatter

	trimmed := strings.TrimLeft(raw, "\uFEFF\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return fm, raw
	}

	rest := trimmed[len("---"):]
	rest = strings.TrimPrefix(rest, "\r")
	if !strings.HasPrefix(rest, "\n") {
		return fm, raw
	}
	rest = rest[1:]

	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, raw
	}

	block := rest[:end]
	body := rest[end+len("\n---"):]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = ""
	}

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return FrontMatter{}, raw
	}
	return fm, body
}
