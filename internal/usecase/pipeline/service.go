package pipeline

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/adapter/repository"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/internal/usecase/aggregate"
	"github.com/johnquangdev/meeting-insights/internal/usecase/classify"
	"github.com/johnquangdev/meeting-insights/internal/usecase/extract"
	"github.com/johnquangdev/meeting-insights/internal/usecase/reconcile"
	"github.com/johnquangdev/meeting-insights/pkg/config"
)

// Completer is the completion backend shared by extraction, classification
// and the reconciliation judge.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RunReport summarizes one pipeline run
type RunReport struct {
	Transcripts        int
	ParseFailures      int
	Insights           int
	FailedWindows      int
	DroppedRecords     int
	CacheHits          int
	Ambiguous          int
	WorkstreamsCreated int
	ItemsCreated       int
	ItemsUpdated       int
	ItemsConfirmed     int
	Conflicts          int
	JudgeCalls         int
	CompletionCalls    int
	CompletionFailures int
}

// Service orchestrates a full pipeline run: transcripts in, reconciled
// workstream state and summary documents out
type Service struct {
	cfg         *config.Config
	completer   Completer
	transcripts *repository.TranscriptRepository
	state       *repository.WorkstreamRepository
	outputs     *repository.OutputRepository
	logger      *zap.Logger
}

// NewService creates a pipeline service
func NewService(
	cfg *config.Config,
	completer Completer,
	transcripts *repository.TranscriptRepository,
	state *repository.WorkstreamRepository,
	outputs *repository.OutputRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:         cfg,
		completer:   completer,
		transcripts: transcripts,
		state:       state,
		outputs:     outputs,
		logger:      logger,
	}
}

// outcome is the per-transcript result of the concurrent phase
type outcome struct {
	transcript *entities.Transcript
	result     *extract.Result
	batches    map[string][]*entities.Insight
	stats      classify.Stats
}

// Run executes one full pass: load state, parse transcripts, extract and
// classify concurrently, reconcile batches in meeting-date order, then write
// summaries and persist the updated state.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}

	existing, err := s.state.Load()
	if err != nil {
		return nil, err
	}
	ledger := reconcile.NewLedger(existing)

	transcripts, failures, err := s.transcripts.LoadAll()
	if err != nil {
		return nil, err
	}
	report.Transcripts = len(transcripts)
	report.ParseFailures = len(failures)
	for _, f := range failures {
		s.logger.Warn("transcript skipped",
			zap.String("file", f.File),
			zap.Error(f.Err),
		)
	}

	outcomes, err := s.processTranscripts(ctx, transcripts, ledger, report)
	if err != nil {
		return nil, err
	}

	judge := reconcile.NewCompletionJudge(s.completer)
	reconciler := reconcile.NewReconciler(
		ledger,
		s.cfg.Pipeline.SimilarityThreshold,
		s.cfg.Pipeline.JudgeLowThreshold,
		judge,
		s.logger,
	)
	if err := s.reconcileAll(ctx, reconciler, outcomes, report); err != nil {
		return nil, err
	}

	if err := s.writeSummaries(ledger); err != nil {
		return nil, err
	}
	if err := s.state.Save(ledger.Snapshot()); err != nil {
		return nil, err
	}

	// A run survives partial completion failures but not a total outage:
	// if every single call failed there is nothing trustworthy to report.
	if report.CompletionCalls > 0 && report.CompletionFailures == report.CompletionCalls {
		return report, apperrors.ErrCompletionUnavailable(nil)
	}

	s.logger.Info("pipeline run complete",
		zap.Int("transcripts", report.Transcripts),
		zap.Int("insights", report.Insights),
		zap.Int("items_created", report.ItemsCreated),
		zap.Int("items_updated", report.ItemsUpdated),
		zap.Int("conflicts", report.Conflicts),
	)
	return report, nil
}

// processTranscripts runs extraction and classification for every transcript,
// a bounded number in flight at once. Each goroutine owns its slot in the
// outcomes slice, so no locking is needed around the results.
func (s *Service) processTranscripts(ctx context.Context, transcripts []*entities.Transcript, ledger *reconcile.Ledger, report *RunReport) ([]*outcome, error) {
	extractor := extract.NewExtractor(
		s.completer,
		s.cfg.Pipeline.WindowSize,
		s.cfg.Pipeline.ExtractRetries,
		s.logger,
	)
	classifier := classify.NewClassifier(
		s.completer,
		ledger,
		s.cfg.Pipeline.LabelConfidence,
		s.cfg.Pipeline.CacheTTL,
		s.logger,
	)

	outcomes := make([]*outcome, len(transcripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Pipeline.Concurrency)

	for i, tr := range transcripts {
		i, tr := i, tr
		g.Go(func() error {
			result, err := extractor.Extract(gctx, tr)
			if err != nil {
				return err
			}

			batches := make(map[string][]*entities.Insight)
			for _, ins := range result.Insights {
				cls, err := classifier.Classify(gctx, ins, tr)
				if err != nil {
					return err
				}
				ins.Workstream = cls.Workstream
				batches[cls.Workstream] = append(batches[cls.Workstream], ins)
			}

			if err := s.outputs.WriteInsights(tr, result.Insights); err != nil {
				return err
			}

			outcomes[i] = &outcome{transcript: tr, result: result, batches: batches}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		report.Insights += len(o.result.Insights)
		report.FailedWindows += len(o.result.FailedWindows)
		report.DroppedRecords += o.result.DroppedRecords
		report.CompletionCalls += o.result.CallsAttempted
		report.CompletionFailures += o.result.CallsFailed
	}
	stats := classifier.Stats()
	report.CacheHits = stats.CacheHits
	report.Ambiguous = stats.Ambiguous
	report.WorkstreamsCreated = stats.Created
	report.CompletionCalls += stats.CallsAttempted
	report.CompletionFailures += stats.CallsFailed
	return outcomes, nil
}

// reconcileAll merges every batch into the ledger, oldest meeting first so
// the forward-only status rule sees meetings in chronological order
func (s *Service) reconcileAll(ctx context.Context, reconciler *reconcile.Reconciler, outcomes []*outcome, report *RunReport) error {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i].transcript, outcomes[j].transcript
		if !a.MeetingDate.Equal(b.MeetingDate) {
			return a.MeetingDate.Before(b.MeetingDate)
		}
		return a.ID < b.ID
	})

	for _, o := range outcomes {
		names := make([]string, 0, len(o.batches))
		for name := range o.batches {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			batch, err := reconciler.ReconcileBatch(ctx, name, o.batches[name], o.transcript.MeetingDate)
			if err != nil {
				return err
			}
			report.ItemsCreated += batch.Created
			report.ItemsUpdated += batch.Updated
			report.ItemsConfirmed += batch.Confirmed
			report.Conflicts += batch.Conflicts
			report.JudgeCalls += batch.JudgeCalls
			report.CompletionCalls += batch.JudgeCalls
			report.CompletionFailures += batch.JudgeFails
		}
	}
	return nil
}

// writeSummaries regenerates the status summary document for every workstream
func (s *Service) writeSummaries(ledger *reconcile.Ledger) error {
	aggregator := aggregate.NewAggregator(time.Now)
	for _, ws := range ledger.Snapshot() {
		summary := aggregator.BuildSummary(ws)
		if err := s.outputs.WriteSummary(ws.Name, aggregate.RenderMarkdown(summary)); err != nil {
			return err
		}
	}
	return nil
}
