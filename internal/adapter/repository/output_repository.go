package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// insightsDocument is the per-transcript extracted-insight output shape
type insightsDocument struct {
	TranscriptID string              `json:"transcript_id"`
	MeetingDate  time.Time           `json:"meeting_date"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Insights     []*entities.Insight `json:"insights"`
}

// OutputRepository writes per-transcript insight records and per-workstream
// summary documents, regenerated on each run
type OutputRepository struct {
	dir    string
	logger *zap.Logger
}

// NewOutputRepository creates an output repository over dir
func NewOutputRepository(dir string, logger *zap.Logger) *OutputRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutputRepository{dir: dir, logger: logger}
}

// WriteInsights stores the structured records extracted from one transcript
func (r *OutputRepository) WriteInsights(tr *entities.Transcript, insights []*entities.Insight) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	doc := insightsDocument{
		TranscriptID: tr.ID,
		MeetingDate:  tr.MeetingDate,
		GeneratedAt:  time.Now(),
		Insights:     insights,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	path := filepath.Join(r.dir, tr.ID+".insights.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write insights file: %w", err)
	}

	r.logger.Debug("insight records written",
		zap.String("transcript_id", tr.ID),
		zap.Int("insight_count", len(insights)),
	)
	return nil
}

// WriteSummary stores the rendered status summary for one workstream
func (r *OutputRepository) WriteSummary(workstream, markdown string) error {
	dir := filepath.Join(r.dir, "summaries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create summaries dir: %w", err)
	}

	path := filepath.Join(dir, Slug(workstream)+".md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// Slug converts a workstream name into a safe file name
func Slug(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "workstream"
	}
	return s
}
