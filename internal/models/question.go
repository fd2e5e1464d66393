package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type InteractionKind string

const (
	InteractionSpeech         InteractionKind = "speech"
	InteractionMultipleChoice InteractionKind = "multiple_choice"
	InteractionSpelling       InteractionKind = "spelling"
	InteractionVisualTracking InteractionKind = "visual_tracking"
)

// Expected holds either a single expected answer or a list of acceptable tokens.
type Expected struct {
	Value  string
	Tokens []string
}

func ExpectValue(value string) Expected {
	return Expected{Value: value}
}

func ExpectAnyOf(tokens ...string) Expected {
	return Expected{Tokens: tokens}
}

func (e Expected) IsList() bool {
	return e.Tokens != nil
}

func (e Expected) IsEmpty() bool {
	if e.IsList() {
		return len(e.Tokens) == 0
	}
	return e.Value == ""
}

// String renders the expectation for storage and export.
func (e Expected) String() string {
	if e.IsList() {
		return strings.Join(e.Tokens, ", ")
	}
	return e.Value
}

func (e Expected) MarshalJSON() ([]byte, error) {
	if e.IsList() {
		return json.Marshal(e.Tokens)
	}
	return json.Marshal(e.Value)
}

func (e *Expected) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err == nil {
		if tokens == nil {
			tokens = []string{}
		}
		*e = Expected{Tokens: tokens}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("expected answer must be a string or list of strings: %w", err)
	}
	*e = Expected{Value: value}
	return nil
}

type Question struct {
	ID               int             `json:"id"`
	Text             string          `json:"text"`
	Kind             InteractionKind `json:"interaction"`
	Expected         Expected        `json:"expected"`
	Options          []string        `json:"options,omitempty"`
	Timed            bool            `json:"timed"`
	TimeLimitSeconds *int            `json:"time_limit,omitempty"`
	Hint             *string         `json:"hint,omitempty"`
}

// QuestionView is what a client sees while answering; expected answers are withheld.
type QuestionView struct {
	ID               int             `json:"id"`
	Text             string          `json:"text"`
	Kind             InteractionKind `json:"interaction"`
	Options          []string        `json:"options,omitempty"`
	Timed            bool            `json:"timed"`
	TimeLimitSeconds *int            `json:"time_limit,omitempty"`
	Hint             *string         `json:"hint,omitempty"`
}

func (q Question) View() QuestionView {
	return QuestionView{
		ID:               q.ID,
		Text:             q.Text,
		Kind:             q.Kind,
		Options:          q.Options,
		Timed:            q.Timed,
		TimeLimitSeconds: q.TimeLimitSeconds,
		Hint:             q.Hint,
	}
}

// FieldName is the form field carrying the answer to this question.
func (q Question) FieldName() string {
	return fmt.Sprintf("q%d", q.ID)
}
