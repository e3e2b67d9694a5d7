package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-insights/errors"
	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

// Judge settles description pairs whose similarity lands in the ambiguous
// band. Optional; without one the deterministic threshold alone decides.
type Judge interface {
	SameItem(ctx context.Context, kind, a, b string) (bool, error)
}

// BatchReport summarizes one transcript batch applied to one workstream
type BatchReport struct {
	Created    int
	Updated    int
	Confirmed  int
	Conflicts  int
	JudgeCalls int
	JudgeFails int
}

// Reconciler merges classified insight batches into workstream histories,
// deduplicating logical items and moving status forward over meeting time
type Reconciler struct {
	ledger    *Ledger
	threshold float64
	judgeLow  float64
	judge     Judge
	logger    *zap.Logger
}

// NewReconciler constructs a Reconciler. judge may be nil.
func NewReconciler(ledger *Ledger, threshold, judgeLow float64, judge Judge, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		ledger:    ledger,
		threshold: threshold,
		judgeLow:  judgeLow,
		judge:     judge,
		logger:    logger,
	}
}

// ReconcileBatch applies one transcript's insights to a workstream history.
// The batch holds the workstream lock for its whole duration, so it is
// applied atomically with respect to other batches for the same workstream.
func (r *Reconciler) ReconcileBatch(ctx context.Context, workstream string, batch []*entities.Insight, meetingDate time.Time) (*BatchReport, error) {
	ws, lock := r.ledger.get(workstream)
	if ws == nil || lock == nil {
		return nil, apperrors.ErrInvalidArgument(fmt.Sprintf("unknown workstream %q", workstream))
	}

	lock.Lock()
	defer lock.Unlock()

	// Source-position order: later same-meeting mentions are applied last so
	// they reflect later-discussed corrections.
	ordered := make([]*entities.Insight, len(batch))
	copy(ordered, batch)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourcePosition < ordered[j].SourcePosition
	})

	report := &BatchReport{}
	touched := make(map[*entities.ReconciledItem]bool)

	for _, ins := range ordered {
		item := r.findMatch(ctx, ws, ins, meetingDate, report)
		if item == nil {
			created := entities.NewReconciledItem(ins, meetingDate)
			ws.Items = append(ws.Items, created)
			touched[created] = true
			report.Created++
			continue
		}
		r.applyUpdate(item, ins, meetingDate, touched, report)
	}

	r.ledger.touch(ws)

	r.logger.Info("batch reconciled",
		zap.String("workstream", ws.Name),
		zap.Time("meeting_date", meetingDate),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("confirmed", report.Confirmed),
		zap.Int("conflicts", report.Conflicts),
	)

	return report, nil
}

// findMatch searches the history for a prior mention of the same logical
// item: same kind, description similarity above the threshold, and created
// no later than the incoming meeting date.
func (r *Reconciler) findMatch(ctx context.Context, ws *entities.Workstream, ins *entities.Insight, meetingDate time.Time, report *BatchReport) *entities.ReconciledItem {
	var best *entities.ReconciledItem
	bestScore := 0.0

	for _, item := range ws.Items {
		if item.Kind != ins.Kind || item.CreatedAt.After(meetingDate) {
			continue
		}
		score := Similarity(item.Description, ins.Description)
		if score > bestScore {
			best, bestScore = item, score
		}
	}

	if best == nil {
		return nil
	}
	if bestScore >= r.threshold {
		return best
	}
	if bestScore >= r.judgeLow && r.judge != nil {
		report.JudgeCalls++
		same, err := r.judge.SameItem(ctx, string(ins.Kind), best.Description, ins.Description)
		if err != nil {
			report.JudgeFails++
			r.logger.Warn("similarity judge failed, falling back to threshold",
				zap.String("workstream", ws.Name),
				zap.Error(err),
			)
			return nil
		}
		if same {
			return best
		}
	}
	return nil
}

// applyUpdate folds an incoming insight into a matched logical item. Status
// only moves forward; all attribute writes are gated on the meeting date so
// an earlier-dated transcript processed late can never regress the item.
func (r *Reconciler) applyUpdate(item *entities.ReconciledItem, ins *entities.Insight, meetingDate time.Time, touched map[*entities.ReconciledItem]bool, report *BatchReport) {
	changed := false
	dateEligible := !meetingDate.Before(item.UpdatedAt)

	if dateEligible {
		if ins.Status != entities.InsightStatusUnknown && entities.StatusRank(ins.Status) > entities.StatusRank(item.Status) {
			item.Status = ins.Status
			changed = true
		}
		if ins.Owner != "" && ins.Owner != item.Owner {
			item.Owner = ins.Owner
			changed = true
		}
		if ins.DueDate != nil && (item.DueDate == nil || !item.DueDate.Equal(*ins.DueDate)) {
			item.DueDate = ins.DueDate
			changed = true
		}
		if ins.Confidence > item.Confidence {
			item.Confidence = ins.Confidence
		}
	}

	change := entities.ProvenanceConfirmed
	note := ""
	switch {
	case touched[item]:
		change = entities.ProvenanceConflict
		note = "multiple mentions in one meeting; later mention applied"
		report.Conflicts++
	case changed:
		change = entities.ProvenanceUpdated
		report.Updated++
	default:
		report.Confirmed++
	}

	item.Provenance = append(item.Provenance, entities.ProvenanceEntry{
		TranscriptID: ins.TranscriptID,
		MeetingDate:  meetingDate,
		Change:       change,
		Note:         note,
	})

	if meetingDate.After(item.UpdatedAt) {
		item.UpdatedAt = meetingDate
	}
	touched[item] = true
}
