package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/internal/usecase/reconcile"
)

type cannedCompleter struct {
	response string
	err      error
	calls    int
}

func (c *cannedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	return c.response, c.err
}

func testInsight(desc string) *entities.Insight {
	rec := entities.ExtractedRecord{Kind: "task", Description: desc, Confidence: 0.8}
	return entities.NewInsight(rec, "t1", 0)
}

func testMeeting() *entities.Transcript {
	return &entities.Transcript{
		ID:          "t1",
		Title:       "Storage sync",
		MeetingDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func newDirectory(labels ...string) *reconcile.Ledger {
	ledger := reconcile.NewLedger(nil)
	for _, l := range labels {
		ledger.Ensure(l)
	}
	return ledger
}

func TestClassify_ReusesExactLabel(t *testing.T) {
	dir := newDirectory("Storage Layer")
	fc := &cannedCompleter{response: `{"workstream": "storage layer", "confidence": 0.9, "is_new": false}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("prepare migration plan"), testMeeting())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Workstream != "Storage Layer" || got.Created {
		t.Errorf("expected case-insensitive reuse, got %+v", got)
	}
}

func TestClassify_ReusesAlias(t *testing.T) {
	dir := newDirectory("Storage Layer")
	dir.AddAlias("Storage Layer", "DB work")
	fc := &cannedCompleter{response: `{"workstream": "db work", "confidence": 0.8, "is_new": false}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("tune connection pool"), testMeeting())
	if err != nil {
		t.Fatal(err)
	}
	if got.Workstream != "Storage Layer" {
		t.Errorf("alias not resolved: %+v", got)
	}
}

func TestClassify_FuzzyReuseAddsAlias(t *testing.T) {
	dir := newDirectory("Storage Layer")
	fc := &cannedCompleter{response: `{"workstream": "storage", "confidence": 0.9, "is_new": false}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("evaluate Postgres"), testMeeting())
	if err != nil {
		t.Fatal(err)
	}
	if got.Workstream != "Storage Layer" || got.Created {
		t.Errorf("fuzzy label should reuse existing workstream, got %+v", got)
	}
	// The variant becomes an alias so the next resolution is exact.
	if canonical, ok := dir.Resolve("storage"); !ok || canonical != "Storage Layer" {
		t.Errorf("fuzzy variant not recorded as alias")
	}
}

func TestClassify_NewWorkstream(t *testing.T) {
	dir := newDirectory("Storage Layer")
	fc := &cannedCompleter{response: `{"workstream": "Billing Revamp", "confidence": 0.85, "is_new": true}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("redesign invoice flow"), testMeeting())
	if err != nil {
		t.Fatal(err)
	}
	if got.Workstream != "Billing Revamp" || !got.Created {
		t.Errorf("expected new workstream, got %+v", got)
	}
}

func TestClassify_LowConfidenceCreatesAndCountsAmbiguous(t *testing.T) {
	dir := newDirectory("Storage Layer")
	fc := &cannedCompleter{response: `{"workstream": "Maybe Frontend", "confidence": 0.2, "is_new": true}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("tweak button color"), testMeeting())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Ambiguous || !got.Created {
		t.Errorf("low confidence should create a workstream and flag ambiguity: %+v", got)
	}
	if s := cl.Stats(); s.Ambiguous != 1 {
		t.Errorf("ambiguity not counted: %+v", s)
	}
}

func TestClassify_CompletionFailureFallsBack(t *testing.T) {
	dir := newDirectory()
	fc := &cannedCompleter{err: errors.New("unavailable")}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	got, err := cl.Classify(context.Background(), testInsight("anything"), testMeeting())
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if got.Workstream != "General" || !got.Ambiguous {
		t.Errorf("expected General fallback, got %+v", got)
	}
	if s := cl.Stats(); s.CallsFailed != 1 {
		t.Errorf("failed call not counted: %+v", s)
	}
}

func TestClassify_CachesAnswer(t *testing.T) {
	dir := newDirectory("Storage Layer")
	fc := &cannedCompleter{response: `{"workstream": "Storage Layer", "confidence": 0.9, "is_new": false}`}

	cl := NewClassifier(fc, dir, 0.6, time.Hour, nil)
	ins := testInsight("prepare migration plan")

	if _, err := cl.Classify(context.Background(), ins, testMeeting()); err != nil {
		t.Fatal(err)
	}
	if _, err := cl.Classify(context.Background(), ins, testMeeting()); err != nil {
		t.Fatal(err)
	}
	if fc.calls != 1 {
		t.Errorf("expected 1 completion call with cache hit, got %d", fc.calls)
	}
	if s := cl.Stats(); s.CacheHits != 1 {
		t.Errorf("cache hit not counted: %+v", s)
	}
}
