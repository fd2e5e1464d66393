package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// ResponseBatch is everything submitted with one evaluation form.
type ResponseBatch struct {
	Answers       map[int]string
	AssistiveTech []int
	Latencies     map[int]float64
	StartedAt     time.Time
}

// Answer returns the submitted answer for a question, empty when absent.
func (b ResponseBatch) Answer(questionID int) string {
	if b.Answers == nil {
		return ""
	}
	return b.Answers[questionID]
}

func (b ResponseBatch) UsedAssistiveTech(questionID int) bool {
	for _, id := range b.AssistiveTech {
		if id == questionID {
			return true
		}
	}
	return false
}

func (b ResponseBatch) Latency(questionID int) float64 {
	if b.Latencies == nil {
		return 0
	}
	return b.Latencies[questionID]
}

// QuestionDetail is the per-question outcome stored with an evaluation.
type QuestionDetail struct {
	Submitted         string          `json:"response"`
	Expected          string          `json:"expected"`
	Kind              InteractionKind `json:"question_type"`
	LatencySeconds    float64         `json:"processing_time"`
	UsedAssistiveTech bool            `json:"used_tts"`
	Correct           bool            `json:"correct"`
}

type EvaluationResult struct {
	Subtype               Subtype                `json:"subtype"`
	Score                 int                    `json:"score"`
	TotalQuestions        int                    `json:"total_questions"`
	Percentage            float64                `json:"percentage"`
	Details               map[int]QuestionDetail `json:"per_question_detail"`
	CompletionTimeSeconds float64                `json:"completion_time_seconds"`
}

// Percentage is 100*score/total, or zero for an empty bank.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(score) / float64(total)
}

// EvaluationRecord is the persisted telemetry row for one submission.
type EvaluationRecord struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	UserID    uint    `json:"user_id" gorm:"not null;index"`
	ProfileID *uint   `json:"profile_id" gorm:"index"`
	Subtype   Subtype `json:"subtype" gorm:"not null;size:50"`

	Score          int     `json:"score" gorm:"not null"`
	TotalQuestions int     `json:"total_questions" gorm:"not null"`
	Percentage     float64 `json:"percentage" gorm:"not null"`
	Accuracy       float64 `json:"accuracy"`

	AssistiveTechCount     int            `json:"assistive_tech_count"`
	AssistiveTechQuestions datatypes.JSON `json:"assistive_tech_questions" gorm:"type:jsonb"` // []int
	Responses              datatypes.JSON `json:"responses" gorm:"type:jsonb"`                // map[question id]QuestionDetail
	ResponseTimes          datatypes.JSON `json:"response_times" gorm:"type:jsonb"`           // map[question id]seconds
	CompletionTime         float64        `json:"completion_time"`

	CreatedAt time.Time `json:"created_at"`

	User    User     `json:"-" gorm:"foreignKey:UserID"`
	Profile *Profile `json:"-" gorm:"foreignKey:ProfileID"`
}

func (EvaluationRecord) TableName() string {
	return "evaluation_records"
}

// NewEvaluationRecord packages a scored result and its auxiliary signals.
func NewEvaluationRecord(result *EvaluationResult, userID uint, profileID *uint, batch ResponseBatch) (*EvaluationRecord, error) {
	assistive := batch.AssistiveTech
	if assistive == nil {
		assistive = []int{}
	}
	assistiveJSON, err := json.Marshal(assistive)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assistive tech usage: %w", err)
	}

	details := result.Details
	if details == nil {
		details = map[int]QuestionDetail{}
	}
	responsesJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}

	latencies := batch.Latencies
	if latencies == nil {
		latencies = map[int]float64{}
	}
	latenciesJSON, err := json.Marshal(latencies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response times: %w", err)
	}

	return &EvaluationRecord{
		UserID:                 userID,
		ProfileID:              profileID,
		Subtype:                result.Subtype,
		Score:                  result.Score,
		TotalQuestions:         result.TotalQuestions,
		Percentage:             result.Percentage,
		Accuracy:               result.Percentage,
		AssistiveTechCount:     len(assistive),
		AssistiveTechQuestions: datatypes.JSON(assistiveJSON),
		Responses:              datatypes.JSON(responsesJSON),
		ResponseTimes:          datatypes.JSON(latenciesJSON),
		CompletionTime:         result.CompletionTimeSeconds,
	}, nil
}

// DecodeResponses returns the stored per-question detail keyed by question id.
func (r *EvaluationRecord) DecodeResponses() (map[int]QuestionDetail, error) {
	out := map[int]QuestionDetail{}
	if len(r.Responses) == 0 {
		return out, nil
	}
	var raw map[string]QuestionDetail
	if err := json.Unmarshal(r.Responses, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode responses of record %d: %w", r.ID, err)
	}
	for key, detail := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("record %d has non-numeric question id %q", r.ID, key)
		}
		out[id] = detail
	}
	return out, nil
}

func (r *EvaluationRecord) DecodeAssistiveTech() ([]int, error) {
	var ids []int
	if len(r.AssistiveTechQuestions) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(r.AssistiveTechQuestions, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode assistive tech usage of record %d: %w", r.ID, err)
	}
	return ids, nil
}

func (r *EvaluationRecord) DecodeResponseTimes() (map[int]float64, error) {
	out := map[int]float64{}
	if len(r.ResponseTimes) == 0 {
		return out, nil
	}
	var raw map[string]float64
	if err := json.Unmarshal(r.ResponseTimes, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response times of record %d: %w", r.ID, err)
	}
	for key, seconds := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[id] = seconds
	}
	return out, nil
}

// EvaluationSummary is the short form shown on the dashboard right after submission.
type EvaluationSummary struct {
	RecordID       uint    `json:"record_id"`
	SubjectUserID  uint    `json:"subject_user_id,omitempty"`
	Subtype        Subtype `json:"subtype"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

func (r *EvaluationRecord) Summary() EvaluationSummary {
	return EvaluationSummary{
		RecordID:       r.ID,
		Subtype:        r.Subtype,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
	}
}

type Severity string

const (
	SeverityMild        Severity = "Mild"
	SeverityModerate    Severity = "Moderate"
	SeveritySignificant Severity = "Significant"
	SeveritySevere      Severity = "Severe"
)

// SeverityFor buckets an evaluation percentage.
func SeverityFor(percentage float64) Severity {
	switch {
	case percentage >= 80:
		return SeverityMild
	case percentage >= 60:
		return SeverityModerate
	case percentage >= 40:
		return SeveritySignificant
	default:
		return SeveritySevere
	}
}

// SortedQuestionIDs returns the keys of a detail map in ascending order.
func SortedQuestionIDs(details map[int]QuestionDetail) []int {
	ids := make([]int, 0, len(details))
	for id := range details {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
