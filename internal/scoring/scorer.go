// Package scoring decides correctness of evaluation answers and totals them.
package scoring

import (
	"strings"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
)

// NoResponse is what the client submits when a timed drill ran out without input.
const NoResponse = "no_response"

// tokenThreshold grants credit when enough of the expected words appear anywhere
// in a continuous-speech answer, in any order.
type tokenThreshold struct {
	tokens  []string
	minimum int
}

var (
	numberWords = tokenThreshold{
		tokens:  []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"},
		minimum: 8,
	}
	weekdayWords = tokenThreshold{
		tokens:  []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
		minimum: 5,
	}
)

// thresholdFor returns the override rule for the rapid-naming counting and
// weekday questions, if q is one of them.
func thresholdFor(subtype models.Subtype, q models.Question) (tokenThreshold, bool) {
	if subtype != models.SubtypeRapidNaming {
		return tokenThreshold{}, false
	}
	switch q.ID {
	case 4:
		return numberWords, true
	case 2:
		return weekdayWords, true
	default:
		return tokenThreshold{}, false
	}
}

func (t tokenThreshold) satisfiedBy(answer string) bool {
	found := 0
	for _, token := range t.tokens {
		if strings.Contains(answer, token) {
			found++
		}
	}
	return found >= t.minimum
}

func normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// IsCorrect applies the matching policy for one question. Empty answers and
// questions without an expected answer are never correct.
func IsCorrect(subtype models.Subtype, q models.Question, answer string) bool {
	response := normalize(answer)
	if response == "" || q.Expected.IsEmpty() {
		return false
	}

	if rule, ok := thresholdFor(subtype, q); ok {
		return rule.satisfiedBy(response)
	}

	if q.Timed {
		return response != NoResponse
	}

	if q.Expected.IsList() {
		for _, token := range q.Expected.Tokens {
			if containsEither(response, strings.ToLower(token)) {
				return true
			}
		}
		return false
	}

	expected := strings.ToLower(q.Expected.Value)
	return response == expected || containsEither(response, expected)
}

func containsEither(response, expected string) bool {
	if expected == "" {
		return false
	}
	return strings.Contains(response, expected) || strings.Contains(expected, response)
}

// Scorer turns a response batch into an EvaluationResult.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// NewScorerWithClock is used where completion time must be deterministic.
func NewScorerWithClock(now func() time.Time) *Scorer {
	return &Scorer{now: now}
}

// Score evaluates every question in order. It has no side effects.
func (s *Scorer) Score(subtype models.Subtype, questions []models.Question, batch models.ResponseBatch) *models.EvaluationResult {
	result := &models.EvaluationResult{
		Subtype:        subtype,
		TotalQuestions: len(questions),
		Details:        make(map[int]models.QuestionDetail, len(questions)),
	}

	for _, q := range questions {
		answer := normalize(batch.Answer(q.ID))
		correct := IsCorrect(subtype, q, answer)
		if correct {
			result.Score++
		}
		result.Details[q.ID] = models.QuestionDetail{
			Submitted:         answer,
			Expected:          q.Expected.String(),
			Kind:              q.Kind,
			LatencySeconds:    batch.Latency(q.ID),
			UsedAssistiveTech: batch.UsedAssistiveTech(q.ID),
			Correct:           correct,
		}
	}

	result.Percentage = models.Percentage(result.Score, result.TotalQuestions)
	result.CompletionTimeSeconds = s.completionSeconds(batch.StartedAt)
	return result
}

func (s *Scorer) completionSeconds(startedAt time.Time) float64 {
	if startedAt.IsZero() {
		return 0
	}
	elapsed := s.now().Sub(startedAt).Seconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
