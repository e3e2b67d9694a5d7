package reconcile

import "testing"

func TestSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "use Postgres for storage", "use Postgres for storage", 1.0, 1.0},
		{"stopwords ignored", "prepare the migration plan", "prepare migration plan", 1.0, 1.0},
		{"case and punctuation", "Use Postgres for storage.", "use postgres for storage", 1.0, 1.0},
		{"terse vs verbose mention", "Postgres storage decision", "we decided to use Postgres for the storage layer of the service", 0.6, 1.0},
		{"unrelated", "use Postgres for storage", "schedule quarterly review", 0.0, 0.0},
		{"empty", "", "anything", 0.0, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Similarity(tc.a, tc.b)
			if got < tc.min || got > tc.max {
				t.Errorf("Similarity(%q, %q) = %f, want in [%f, %f]", tc.a, tc.b, got, tc.min, tc.max)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "prepare migration plan", "migration plan review session"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity must be symmetric")
	}
}
