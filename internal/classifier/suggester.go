package classifier

import (
	"context"
)

// PlaceholderFeatures is the fixed vector the suggestion is computed from:
// n_fix_trial, mean_fix_dur_trial, n_sacc_trial, n_regress_trial. It is not
// derived from the subject's answers, so suggestions are advisory only.
var PlaceholderFeatures = []float64{120, 220, 85, 15}

// Suggester produces an advisory subtype label for a subject.
type Suggester interface {
	Suggest(ctx context.Context, subjectUserID uint) (string, error)
}

// ForestSuggester runs a loaded forest on the subject's feature vector.
// A nil forest always reports ErrUnavailable.
type ForestSuggester struct {
	forest   *Forest
	features func(subjectUserID uint) []float64
}

func NewForestSuggester(forest *Forest) *ForestSuggester {
	return &ForestSuggester{
		forest: forest,
		features: func(uint) []float64 {
			return PlaceholderFeatures
		},
	}
}

func (s *ForestSuggester) Suggest(ctx context.Context, subjectUserID uint) (string, error) {
	if s == nil || s.forest == nil {
		return "", ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.forest.Predict(s.features(subjectUserID))
}
