package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// Completer is the narrow interface to the external completion service
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionJudge asks the completion service whether two descriptions refer
// to the same logical item. Used only for the ambiguous similarity band.
type CompletionJudge struct {
	completer Completer
}

// NewCompletionJudge creates a judge backed by the completion service
func NewCompletionJudge(completer Completer) *CompletionJudge {
	return &CompletionJudge{completer: completer}
}

// SameItem returns true when the service answers that both statements
// describe the same underlying item
func (j *CompletionJudge) SameItem(ctx context.Context, kind, a, b string) (bool, error) {
	prompt := fmt.Sprintf(
		"Two meeting notes mention a %s:\n1. %s\n2. %s\n\nDo both refer to the same underlying item? Answer with exactly one word: yes or no.",
		kind, a, b,
	)

	raw, err := j.completer.Complete(ctx, prompt)
	if err != nil {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(answer, "yes"), nil
}
