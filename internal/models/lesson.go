package models

import (
	"strings"
	"time"
)

type Lesson struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	ContentText string  `json:"content_text" gorm:"type:text"`
	ImageURL    *string `json:"image_url" gorm:"size:500"`
	Subtype     Subtype `json:"subtype" gorm:"size:50;index;default:'Developmental dyslexia'"`

	Prompt        string `json:"prompt" gorm:"size:255"`
	ChoiceA       string `json:"choice_a" gorm:"size:120"`
	ChoiceB       string `json:"choice_b" gorm:"size:120"`
	ChoiceC       string `json:"choice_c" gorm:"size:120"`
	CorrectChoice string `json:"-" gorm:"size:1"`

	Level     int       `json:"level" gorm:"default:1"`
	CreatedAt time.Time `json:"created_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// IsCorrect compares a selected choice letter case-insensitively. Lessons
// without a configured answer never count as correct.
func (l *Lesson) IsCorrect(selected string) bool {
	if l.CorrectChoice == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(selected), l.CorrectChoice)
}

type LessonAttempt struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	UserID         uint   `json:"user_id" gorm:"not null;index"`
	LessonID       uint   `json:"lesson_id" gorm:"not null;index"`
	SelectedChoice string `json:"selected_choice" gorm:"size:1"`
	IsCorrect      bool   `json:"is_correct"`

	TimeSpentMs int `json:"time_spent_ms"`
	TTSPlays    int `json:"tts_plays"`
	Repeats     int `json:"repeats"`

	CreatedAt time.Time `json:"created_at"`

	Lesson Lesson `json:"-" gorm:"foreignKey:LessonID"`
}

func (LessonAttempt) TableName() string {
	return "lesson_attempts"
}

// RemediationModule is a static training module recommended for a subtype.
type RemediationModule struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Progress    int    `json:"progress"`
}

var remediationModules = map[Subtype][]RemediationModule{
	SubtypePhonological: {
		{ID: 1, Name: "Phonics Training", Description: "Improve sound recognition."},
		{ID: 2, Name: "Sound Recognition", Description: "Practice breaking down words."},
	},
	SubtypeSurface: {
		{ID: 3, Name: "Sight Words", Description: "Recognize whole words quickly."},
	},
	SubtypeVisual: {
		{ID: 4, Name: "Visual Tracking", Description: "Train smooth eye movements."},
	},
	SubtypeRapidNaming: {
		{ID: 5, Name: "Naming Drills", Description: "Practice quick recall."},
	},
	SubtypeDevelopmental: {
		{ID: 6, Name: "General Reading", Description: "Adaptive reading lessons."},
	},
	SubtypeAcquired: {
		{ID: 7, Name: "Memory Support", Description: "Rehabilitation-based reading."},
	},
}

// ModulesFor returns a fresh copy of the modules recommended for a subtype.
func ModulesFor(subtype Subtype) []RemediationModule {
	modules := remediationModules[subtype]
	out := make([]RemediationModule, len(modules))
	copy(out, modules)
	return out
}
