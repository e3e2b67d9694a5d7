package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
	"github.com/johnquangdev/meeting-insights/internal/infrastructure/cache"
)

// Completer is the narrow interface to the external completion service
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Directory is the workstream label registry the classifier resolves against
type Directory interface {
	Labels() []*entities.Workstream
	Resolve(label string) (string, bool)
	Ensure(label string) (string, bool)
	AddAlias(canonical, alias string)
}

// Classification is the outcome of labeling one insight
type Classification struct {
	Workstream string  // canonical workstream name
	Confidence float64 // classifier-reported confidence
	Created    bool    // a new workstream was created for this label
	Ambiguous  bool    // no label cleared the confidence threshold
}

// Stats counts classifier activity across a run
type Stats struct {
	CallsAttempted int
	CallsFailed    int
	CacheHits      int
	Ambiguous      int
	Created        int
}

// labelAnswer is the expected JSON shape of the completion response
type labelAnswer struct {
	Workstream string  `json:"workstream"`
	Confidence float64 `json:"confidence"`
	IsNew      bool    `json:"is_new"`
}

// Classifier assigns each insight to a known or newly-discovered workstream
type Classifier struct {
	completer  Completer
	directory  Directory
	store      *cache.MemoryStore
	cacheTTL   time.Duration
	confidence float64
	logger     *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewClassifier constructs a Classifier. confidence is the threshold below
// which a new workstream is created instead of forcing a weak match.
func NewClassifier(completer Completer, directory Directory, confidence float64, cacheTTL time.Duration, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Classifier{
		completer:  completer,
		directory:  directory,
		store:      cache.NewMemoryStore(),
		cacheTTL:   cacheTTL,
		confidence: confidence,
		logger:     logger,
	}
}

// Stats returns a snapshot of run counters
func (c *Classifier) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Classify assigns a workstream label to the insight. Never fails the
// insight: a completion failure or a low-confidence answer resolves by
// creating (or reusing) a workstream derived from the available context.
func (c *Classifier) Classify(ctx context.Context, ins *entities.Insight, tr *entities.Transcript) (*Classification, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cacheKey := normalizeLabel(string(ins.Kind) + "|" + ins.Description)
	if label, ok := c.store.Get(cacheKey); ok {
		if canonical, ok := c.directory.Resolve(label); ok {
			c.count(func(s *Stats) { s.CacheHits++ })
			return &Classification{Workstream: canonical, Confidence: 1}, nil
		}
	}

	known := c.directory.Labels()
	prompt := classificationPrompt(ins, tr, known)

	c.count(func(s *Stats) { s.CallsAttempted++ })
	raw, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		c.count(func(s *Stats) { s.CallsFailed++ })
		return c.fallback(ins, tr, err), nil
	}

	var answer labelAnswer
	if err := json.Unmarshal([]byte(extractJSON(raw)), &answer); err != nil || strings.TrimSpace(answer.Workstream) == "" {
		return c.fallback(ins, tr, fmt.Errorf("unparsable classification answer")), nil
	}

	label := strings.TrimSpace(answer.Workstream)
	result := c.resolveLabel(label, known, answer.Confidence)
	c.store.Set(cacheKey, result.Workstream, c.cacheTTL)
	return result, nil
}

// resolveLabel reuses an existing workstream when the label matches exactly,
// by alias, or fuzzily; otherwise creates a new one. Low confidence always
// creates rather than forcing a weak match (logged, not an error).
func (c *Classifier) resolveLabel(label string, known []*entities.Workstream, confidence float64) *Classification {
	if canonical, ok := c.directory.Resolve(label); ok {
		return &Classification{Workstream: canonical, Confidence: confidence}
	}

	if confidence >= c.confidence {
		// Prefer the lexically closest existing label over creating a new
		// workstream, to avoid label proliferation from phrasing drift.
		if canonical, ok := c.fuzzyResolve(label, known); ok {
			c.directory.AddAlias(canonical, label)
			c.logger.Info("label matched fuzzily",
				zap.String("label", label),
				zap.String("workstream", canonical),
			)
			return &Classification{Workstream: canonical, Confidence: confidence}
		}

		canonical, created := c.directory.Ensure(label)
		if created {
			c.count(func(s *Stats) { s.Created++ })
			c.logger.Info("new workstream created", zap.String("workstream", canonical))
		}
		return &Classification{Workstream: canonical, Confidence: confidence, Created: created}
	}

	// ClassificationAmbiguity: no label cleared the threshold.
	c.count(func(s *Stats) { s.Ambiguous++ })
	canonical, created := c.directory.Ensure(label)
	if created {
		c.count(func(s *Stats) { s.Created++ })
	}
	c.logger.Warn("low-confidence classification, creating workstream",
		zap.String("label", label),
		zap.Float64("confidence", confidence),
	)
	return &Classification{Workstream: canonical, Confidence: confidence, Created: created, Ambiguous: true}
}

// fuzzyResolve matches a label against known names and aliases as a fuzzy
// pattern. Only clear matches are accepted.
func (c *Classifier) fuzzyResolve(label string, known []*entities.Workstream) (string, bool) {
	var candidates []string
	var canonical []string
	for _, ws := range known {
		candidates = append(candidates, normalizeLabel(ws.Name))
		canonical = append(canonical, ws.Name)
		for _, a := range ws.Aliases {
			candidates = append(candidates, normalizeLabel(a))
			canonical = append(canonical, ws.Name)
		}
	}
	if len(candidates) == 0 || len(label) < 3 {
		return "", false
	}

	matches := fuzzy.Find(normalizeLabel(label), candidates)
	if len(matches) == 0 || matches[0].Score <= 0 {
		return "", false
	}
	return canonical[matches[0].Index], true
}

// fallback labels an insight when the service gave no usable answer: reuse
// the transcript title when it resolves, otherwise a catch-all workstream.
func (c *Classifier) fallback(ins *entities.Insight, tr *entities.Transcript, cause error) *Classification {
	c.logger.Warn("classification fell back",
		zap.String("transcript_id", ins.TranscriptID),
		zap.Error(cause),
	)

	if tr != nil && tr.Title != "" {
		if canonical, ok := c.directory.Resolve(tr.Title); ok {
			return &Classification{Workstream: canonical, Ambiguous: true}
		}
	}

	c.count(func(s *Stats) { s.Ambiguous++ })
	canonical, created := c.directory.Ensure("General")
	if created {
		c.count(func(s *Stats) { s.Created++ })
	}
	return &Classification{Workstream: canonical, Created: created, Ambiguous: true}
}

func (c *Classifier) count(fn func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.stats)
}

// normalizeLabel lowercases and collapses separators for comparison
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
