package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/adapter/repository"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/internal/usecase/transcript"
	"github.com/johnquangdev/meeting-insights/pkg/config"
)

// scriptedCompleter routes prompts to canned answers by prompt content
type scriptedCompleter struct {
	err error
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	switch {
	case strings.Contains(prompt, "analyzing meeting transcripts"):
		if strings.Contains(prompt, "revisited") {
			return `{"insights": [
				{"kind": "decision", "description": "use Postgres for storage", "status": "in_progress", "confidence": 0.85, "speaker": "Bob", "position": 0}
			]}`, nil
		}
		return `{"insights": [
			{"kind": "decision", "description": "use Postgres for storage", "status": "open", "confidence": 0.9, "speaker": "Alice", "position": 0},
			{"kind": "task", "description": "prepare the migration plan", "owner": "Carol", "due_date": "2024-01-12", "status": "open", "confidence": 0.8, "speaker": "Bob", "position": 1}
		]}`, nil
	case strings.Contains(prompt, "project workstreams"):
		return `{"workstream": "Storage Layer", "confidence": 0.9, "is_new": false}`, nil
	case strings.Contains(prompt, "same underlying item"):
		return "yes", nil
	}
	return "", errors.New("unexpected prompt")
}

func testConfig(transcriptsDir, outputDir, statePath string) *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			WindowSize:          40,
			Concurrency:         1,
			ExtractRetries:      1,
			SimilarityThreshold: 0.5,
			JudgeLowThreshold:   0.3,
			LabelConfidence:     0.6,
			CacheTTL:            time.Hour,
		},
		Paths: config.PathsConfig{
			TranscriptsDir: transcriptsDir,
			OutputDir:      outputDir,
			StateFile:      statePath,
		},
	}
}

func newTestService(t *testing.T, completer Completer) (*Service, string, string) {
	t.Helper()
	transcriptsDir := t.TempDir()
	outputDir := t.TempDir()
	statePath := filepath.Join(t.TempDir(), "workstreams.json")
	cfg := testConfig(transcriptsDir, outputDir, statePath)

	svc := NewService(
		cfg,
		completer,
		repository.NewTranscriptRepository(transcriptsDir, transcript.NewParser(nil), nil),
		repository.NewWorkstreamRepository(statePath, nil),
		repository.NewOutputRepository(outputDir, nil),
		nil,
	)
	return svc, transcriptsDir, outputDir
}

func writeTranscript(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestService_Run_TwoMeetings(t *testing.T) {
	svc, transcriptsDir, outputDir := newTestService(t, &scriptedCompleter{})

	writeTranscript(t, transcriptsDir, "2024-01-10.md",
		"Alice: We decided to use Postgres for storage.\nBob: Carol will prepare the migration plan by Friday.\n")
	writeTranscript(t, transcriptsDir, "2024-01-17.md",
		"Bob: The Postgres decision from last week is being revisited, work is underway.\n")

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Transcripts != 2 {
		t.Errorf("Transcripts = %d, want 2", report.Transcripts)
	}
	if report.Insights != 3 {
		t.Errorf("Insights = %d, want 3", report.Insights)
	}
	if report.ItemsCreated != 2 {
		t.Errorf("ItemsCreated = %d, want 2", report.ItemsCreated)
	}
	if report.ItemsUpdated != 1 {
		t.Errorf("ItemsUpdated = %d, want 1", report.ItemsUpdated)
	}
	if report.WorkstreamsCreated != 1 {
		t.Errorf("WorkstreamsCreated = %d, want 1", report.WorkstreamsCreated)
	}
	if report.CompletionFailures != 0 {
		t.Errorf("CompletionFailures = %d, want 0", report.CompletionFailures)
	}
	// The second meeting repeats the decision verbatim, so its label is served
	// from the classification cache.
	if report.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", report.CacheHits)
	}

	state, err := repository.NewWorkstreamRepository(svc.cfg.Paths.StateFile, nil).Load()
	if err != nil {
		t.Fatalf("loading persisted state: %v", err)
	}
	if len(state) != 1 || state[0].Name != "Storage Layer" {
		t.Fatalf("unexpected persisted workstreams: %+v", state)
	}
	if len(state[0].Items) != 2 {
		t.Fatalf("expected 2 reconciled items, got %d", len(state[0].Items))
	}

	var decision *entities.ReconciledItem
	for _, item := range state[0].Items {
		if item.Kind == entities.InsightKindDecision {
			decision = item
		}
	}
	if decision == nil {
		t.Fatal("decision item not persisted")
	}
	if decision.Status != entities.InsightStatusInProgress {
		t.Errorf("decision status = %s, want in_progress", decision.Status)
	}
	if got := decision.CreatedAt.Format("2006-01-02"); got != "2024-01-10" {
		t.Errorf("decision CreatedAt = %s, want first meeting date", got)
	}
	if got := decision.UpdatedAt.Format("2006-01-02"); got != "2024-01-17" {
		t.Errorf("decision UpdatedAt = %s, want second meeting date", got)
	}
	if len(decision.Provenance) != 2 {
		t.Errorf("decision provenance entries = %d, want 2", len(decision.Provenance))
	}

	summary, err := os.ReadFile(filepath.Join(outputDir, "summaries", "storage-layer.md"))
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	text := string(summary)
	if !strings.Contains(text, "use Postgres for storage") || !strings.Contains(text, "prepare the migration plan") {
		t.Errorf("summary missing items:\n%s", text)
	}
	if strings.Index(text, "use Postgres for storage") > strings.Index(text, "prepare the migration plan") {
		t.Errorf("decisions should precede tasks in the summary")
	}

	insights, err := os.ReadFile(filepath.Join(outputDir, "2024-01-10.insights.json"))
	if err != nil {
		t.Fatalf("insights file not written: %v", err)
	}
	if !strings.Contains(string(insights), `"workstream": "Storage Layer"`) {
		t.Errorf("insights output missing workstream label")
	}
}

func TestService_Run_Rerun_IsIdempotent(t *testing.T) {
	svc, transcriptsDir, _ := newTestService(t, &scriptedCompleter{})
	writeTranscript(t, transcriptsDir, "2024-01-10.md",
		"Alice: We decided to use Postgres for storage.\nBob: Carol will prepare the migration plan by Friday.\n")

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if report.ItemsCreated != 0 {
		t.Errorf("second run created %d items, want 0", report.ItemsCreated)
	}

	state, err := repository.NewWorkstreamRepository(svc.cfg.Paths.StateFile, nil).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(state) != 1 || len(state[0].Items) != 2 {
		t.Fatalf("re-run duplicated items: %+v", state)
	}
}

func TestService_Run_ParseFailureIsolated(t *testing.T) {
	svc, transcriptsDir, _ := newTestService(t, &scriptedCompleter{})
	writeTranscript(t, transcriptsDir, "2024-01-10.md",
		"Alice: We decided to use Postgres for storage.\nBob: Carol will prepare the migration plan by Friday.\n")
	writeTranscript(t, transcriptsDir, "broken.md", "no dialogue lines at all\n")

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.ParseFailures != 1 {
		t.Errorf("ParseFailures = %d, want 1", report.ParseFailures)
	}
	if report.Transcripts != 1 {
		t.Errorf("Transcripts = %d, want 1", report.Transcripts)
	}
	if report.ItemsCreated != 2 {
		t.Errorf("ItemsCreated = %d, want 2", report.ItemsCreated)
	}
}

func TestService_Run_TotalOutage(t *testing.T) {
	svc, transcriptsDir, _ := newTestService(t, &scriptedCompleter{err: errors.New("connection refused")})
	writeTranscript(t, transcriptsDir, "2024-01-10.md",
		"Alice: We decided to use Postgres for storage.\n")

	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error when every completion call fails")
	}
	if apperrors.CodeOf(err) != apperrors.ErrorCode_COMPLETION_UNAVAILABLE {
		t.Errorf("error code = %v, want COMPLETION_UNAVAILABLE", apperrors.CodeOf(err))
	}
	if report == nil || report.CompletionFailures == 0 {
		t.Errorf("report should count the failed calls")
	}
}
