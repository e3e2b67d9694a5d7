package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-insights/internal/adapter/repository"
	"github.com/johnquangdev/meeting-insights/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-insights/internal/usecase/transcript"
	pkgai "github.com/johnquangdev/meeting-insights/pkg/ai"
	"github.com/johnquangdev/meeting-insights/pkg/config"
)

func main() {
	transcriptsDir := flag.String("transcripts", "", "override the transcripts directory")
	outputDir := flag.String("output", "", "override the output directory")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *transcriptsDir != "" {
		cfg.Paths.TranscriptsDir = *transcriptsDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	completer := pkgai.NewCompletionClient(&cfg.Completion)
	parser := transcript.NewParser(logger)

	svc := pipeline.NewService(
		cfg,
		completer,
		repository.NewTranscriptRepository(cfg.Paths.TranscriptsDir, parser, logger),
		repository.NewWorkstreamRepository(cfg.Paths.StateFile, logger),
		repository.NewOutputRepository(cfg.Paths.OutputDir, logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := svc.Run(ctx)
	if err != nil {
		logger.Error("pipeline run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("run summary",
		zap.Int("transcripts", report.Transcripts),
		zap.Int("parse_failures", report.ParseFailures),
		zap.Int("insights", report.Insights),
		zap.Int("failed_windows", report.FailedWindows),
		zap.Int("dropped_records", report.DroppedRecords),
		zap.Int("workstreams_created", report.WorkstreamsCreated),
		zap.Int("items_created", report.ItemsCreated),
		zap.Int("items_updated", report.ItemsUpdated),
		zap.Int("items_confirmed", report.ItemsConfirmed),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("ambiguous_labels", report.Ambiguous),
		zap.Int("judge_calls", report.JudgeCalls),
		zap.Int("completion_calls", report.CompletionCalls),
		zap.Int("completion_failures", report.CompletionFailures),
	)
}
