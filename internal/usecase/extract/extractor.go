package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/pkg/validator"
)

// Completer is the narrow interface to the external completion service
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result carries the outcome of extracting one transcript
type Result struct {
	Insights       []*entities.Insight
	FailedWindows  []int // window indices whose retries were exhausted
	DroppedRecords int   // records rejected by schema validation
	CallsAttempted int
	CallsFailed    int // completion-service call failures (transport/timeout)
}

// responseEnvelope is the expected shape of the completion response
type responseEnvelope struct {
	Insights []entities.ExtractedRecord `json:"insights"`
}

// Extractor produces validated Insight records from a transcript by prompting
// the completion service per window of utterances
type Extractor struct {
	completer  Completer
	validator  *validator.RecordValidator
	logger     *zap.Logger
	windowSize int
	retries    int
}

// NewExtractor constructs an Extractor. windowSize bounds utterances per
// completion call; retries bounds corrective re-asks per window.
func NewExtractor(completer Completer, windowSize, retries int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if windowSize < 1 {
		windowSize = 40
	}
	if retries < 0 {
		retries = 0
	}
	return &Extractor{
		completer:  completer,
		validator:  validator.New(),
		logger:     logger,
		windowSize: windowSize,
		retries:    retries,
	}
}

// Extract runs extraction over every window of the transcript. A window whose
// retries are exhausted is recorded as failed; remaining windows still run.
func (e *Extractor) Extract(ctx context.Context, tr *entities.Transcript) (*Result, error) {
	if tr == nil || len(tr.Utterances) == 0 {
		return nil, apperrors.ErrInvalidArgument("transcript has no utterances")
	}

	result := &Result{}
	windows := e.windows(tr.Utterances)

	for wi, window := range windows {
		insights, err := e.extractWindow(ctx, tr, wi, window, result)
		if err != nil {
			e.logger.Warn("window extraction failed",
				zap.String("transcript_id", tr.ID),
				zap.Int("window", wi),
				zap.Error(err),
			)
			result.FailedWindows = append(result.FailedWindows, wi)
			continue
		}
		result.Insights = append(result.Insights, insights...)
	}

	e.logger.Info("extraction finished",
		zap.String("transcript_id", tr.ID),
		zap.Int("insight_count", len(result.Insights)),
		zap.Int("failed_windows", len(result.FailedWindows)),
		zap.Int("dropped_records", result.DroppedRecords),
	)

	return result, nil
}

// extractWindow prompts for one window, retrying with a corrective prompt
// when the whole response fails to parse
func (e *Extractor) extractWindow(ctx context.Context, tr *entities.Transcript, wi int, window []entities.Utterance, result *Result) ([]*entities.Insight, error) {
	prompt := extractionPrompt(window)

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		result.CallsAttempted++
		raw, err := e.completer.Complete(ctx, prompt)
		if err != nil {
			result.CallsFailed++
			lastErr = err
			if ctx.Err() != nil {
				return nil, apperrors.ErrExtractionFailed(tr.ID, wi, ctx.Err())
			}
			continue
		}

		envelope, err := e.parseResponse(raw)
		if err != nil {
			lastErr = err
			prompt = correctivePrompt(window, raw)
			continue
		}

		return e.buildInsights(tr, window, envelope, result), nil
	}

	return nil, apperrors.ErrExtractionFailed(tr.ID, wi, lastErr)
}

// parseResponse unmarshals a completion response into the envelope shape
func (e *Extractor) parseResponse(raw string) (*responseEnvelope, error) {
	cleaned := extractJSON(raw)

	var envelope responseEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &envelope, nil
}

// buildInsights validates each record and converts survivors to insights
func (e *Extractor) buildInsights(tr *entities.Transcript, window []entities.Utterance, envelope *responseEnvelope, result *Result) []*entities.Insight {
	windowStart := window[0].Position
	windowEnd := window[len(window)-1].Position

	insights := make([]*entities.Insight, 0, len(envelope.Insights))
	for _, rec := range envelope.Insights {
		if err := e.validator.Validate(rec); err != nil {
			result.DroppedRecords++
			e.logger.Warn("dropping record failing schema validation",
				zap.String("transcript_id", tr.ID),
				zap.String("kind", rec.Kind),
				zap.Error(err),
			)
			continue
		}

		position := windowStart
		if rec.Position != nil && *rec.Position >= windowStart && *rec.Position <= windowEnd {
			position = *rec.Position
		}

		if rec.Owner == "" && rec.Kind == string(entities.InsightKindTask) {
			rec.Owner = dominantSpeaker(window)
		}

		insights = append(insights, entities.NewInsight(rec, tr.ID, position))
	}
	return insights
}

// windows chunks utterances into groups of at most windowSize
func (e *Extractor) windows(utterances []entities.Utterance) [][]entities.Utterance {
	var out [][]entities.Utterance
	for start := 0; start < len(utterances); start += e.windowSize {
		end := start + e.windowSize
		if end > len(utterances) {
			end = len(utterances)
		}
		out = append(out, utterances[start:end])
	}
	return out
}

// dominantSpeaker returns the speaker with the most utterances in the window
func dominantSpeaker(window []entities.Utterance) string {
	counts := make(map[string]int)
	best := ""
	for _, u := range window {
		counts[u.Speaker]++
		if best == "" || counts[u.Speaker] > counts[best] {
			best = u.Speaker
		}
	}
	return best
}
