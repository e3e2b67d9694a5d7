package reconcile

import "strings"

// stopwords excluded from description tokens so that filler does not inflate
// similarity between unrelated items
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "of": {}, "for": {}, "on": {},
	"in": {}, "is": {}, "are": {}, "was": {}, "be": {}, "we": {}, "and": {},
	"or": {}, "it": {}, "this": {}, "that": {}, "with": {}, "will": {},
}

// tokenize lowercases, strips punctuation and drops stopwords
func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:!?\"'()[]")
		if f == "" {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// Similarity is the overlap coefficient over description tokens, in [0,1]:
// intersection size divided by the smaller token set. A terse mention of an
// item scores high against a verbose one, which is the common shape of
// repeated mentions across meetings. Deterministic so matching behavior is
// reproducible without the completion service.
func Similarity(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(intersection) / float64(smaller)
}
