package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/internal/usecase/transcript"
)

// filenameDate matches a YYYY-MM-DD date anywhere in a file name
var filenameDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ParseFailure records a file that could not be parsed into a transcript
type ParseFailure struct {
	File string
	Err  error
}

// TranscriptRepository reads meeting transcripts from a directory of plain
// text/markdown files, one meeting per file
type TranscriptRepository struct {
	dir    string
	parser *transcript.Parser
	logger *zap.Logger
}

// NewTranscriptRepository creates a transcript repository over dir
func NewTranscriptRepository(dir string, parser *transcript.Parser, logger *zap.Logger) *TranscriptRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptRepository{dir: dir, parser: parser, logger: logger}
}

// LoadAll reads every transcript file in name order. Unparsable files are
// reported as failures and do not abort the batch.
func (r *TranscriptRepository) LoadAll() ([]*entities.Transcript, []ParseFailure, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transcripts dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".md" || ext == ".txt" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var transcripts []*entities.Transcript
	var failures []ParseFailure

	for _, name := range names {
		path := filepath.Join(r.dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, ParseFailure{File: name, Err: err})
			continue
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		tr, err := r.parser.Parse(id, r.meetingDate(name, path), name, string(raw))
		if err != nil {
			failures = append(failures, ParseFailure{File: name, Err: err})
			continue
		}
		transcripts = append(transcripts, tr)
	}

	return transcripts, failures, nil
}

// meetingDate derives the meeting date from the file name, falling back to
// the file modification time. Front matter, when present, overrides both.
func (r *TranscriptRepository) meetingDate(name, path string) time.Time {
	if m := filenameDate.FindString(name); m != "" {
		if d, err := time.Parse("2006-01-02", m); err == nil {
			return d
		}
	}

	if info, err := os.Stat(path); err == nil {
		r.logger.Warn("no meeting date in file name, using modification time",
			zap.String("file", name),
		)
		return info.ModTime()
	}
	return time.Now()
}
