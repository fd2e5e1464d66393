package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of domain event published by the service
type EventType string

const (
	EventSubtypeSelected     EventType = "subtype.selected"
	EventEvaluationSubmitted EventType = "evaluation.submitted"
	EventLessonAttempted     EventType = "lesson.attempted"
	EventChildRegistered     EventType = "account.child_registered"
)

const (
	eventSource  = "screening-service"
	eventVersion = "1.0"
)

// Event is the envelope shared by all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps a payload in an envelope with a fresh id and timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

type SubtypeSelectedEvent struct {
	ProfileID       uint      `json:"profile_id"`
	SubjectUserID   uint      `json:"subject_user_id"`
	SelectedBy      uint      `json:"selected_by"`
	PreviousSubtype string    `json:"previous_subtype,omitempty"`
	Subtype         string    `json:"subtype"`
	SelectedAt      time.Time `json:"selected_at"`
}

type EvaluationSubmittedEvent struct {
	RecordID       uint      `json:"record_id"`
	UserID         uint      `json:"user_id"`
	ProfileID      *uint     `json:"profile_id,omitempty"`
	Subtype        string    `json:"subtype"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type LessonAttemptedEvent struct {
	AttemptID uint   `json:"attempt_id"`
	LessonID  uint   `json:"lesson_id"`
	UserID    uint   `json:"user_id"`
	IsCorrect bool   `json:"is_correct"`
	Subtype   string `json:"subtype"`
}

type ChildRegisteredEvent struct {
	ParentID  uint `json:"parent_id"`
	ChildID   uint `json:"child_id"`
	ProfileID uint `json:"profile_id"`
}
