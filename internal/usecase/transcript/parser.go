package transcript

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

// speakerPattern matches a "Speaker: text" line. The speaker part must start
// with a letter so timestamps like "10:30" never open an utterance.
var speakerPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 .'_-]{0,63}):\s*(.*)$`)

// timestampPattern matches standalone timestamp lines left over from
// recording tools, e.g. "[10:30]" or "2:15 PM"
var timestampPattern = regexp.MustCompile(`^\[?\d{1,2}:\d{2}(:\d{2})?\]?\s*([AaPp][Mm])?$`)

// Parser turns raw transcript text into an ordered sequence of utterances
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new Parser instance
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse splits raw transcript text into ordered utterances. A new utterance
// begins at every "Speaker: text" line; following lines are appended to the
// current utterance preserving internal line breaks. Lines before the first
// speaker marker are discarded as non-dialogue content.
func (p *Parser) Parse(id string, meetingDate time.Time, sourceFile, raw string) (*entities.Transcript, error) {
	fm, body := SplitFrontMatter(raw)

	title := fm.Title
	if fm.MeetingDate != "" {
		if d, err := time.Parse("2006-01-02", fm.MeetingDate); err == nil {
			meetingDate = d
		} else {
			p.logger.Warn("invalid meeting_date in front matter",
				zap.String("transcript_id", id),
				zap.String("meeting_date", fm.MeetingDate),
			)
		}
	}

	var utterances []entities.Utterance
	var current *entities.Utterance

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if timestampPattern.MatchString(trimmed) {
			continue
		}

		if m := speakerPattern.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[2], "//") {
			if current != nil {
				utterances = appendUtterance(utterances, current)
			}
			current = &entities.Utterance{
				Speaker: strings.TrimSpace(m[1]),
				Text:    strings.TrimSpace(m[2]),
			}
			continue
		}

		// Continuation line of the current utterance; preamble otherwise.
		if current != nil {
			if current.Text == "" {
				current.Text = trimmed
			} else if trimmed != "" {
				current.Text += "\n" + trimmed
			}
		}
	}
	if current != nil {
		utterances = appendUtterance(utterances, current)
	}

	if len(utterances) == 0 {
		return nil, apperrors.ErrTranscriptUnparsable(sourceFile)
	}

	p.logger.Debug("parsed transcript",
		zap.String("transcript_id", id),
		zap.Int("utterance_count", len(utterances)),
	)

	return &entities.Transcript{
		ID:          id,
		Title:       title,
		MeetingDate: meetingDate,
		SourceFile:  sourceFile,
		Utterances:  utterances,
	}, nil
}

// appendUtterance adds a finished utterance, dropping empty ones and keeping
// position indices strictly increasing
func appendUtterance(utterances []entities.Utterance, u *entities.Utterance) []entities.Utterance {
	if strings.TrimSpace(u.Text) == "" {
		return utterances
	}
	u.Position = len(utterances)
	return append(utterances, *u)
}
