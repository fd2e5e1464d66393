package models

import (
	"time"
)

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string `json:"email" gorm:"size:255"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`
	Role         Role   `json:"role" gorm:"not null;size:20;default:CHILD"`
	IsStaff      bool   `json:"is_staff" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// SubtypeState is the assignment lifecycle of a subject profile.
type SubtypeState string

const (
	StateUnassigned SubtypeState = "unassigned"
	StateSelected   SubtypeState = "selected"
	StateEvaluated  SubtypeState = "evaluated"
)

// Profile is the evaluated subject's record. ParentUserID is set only for
// children registered by a parent.
type Profile struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	SubjectUserID uint     `json:"subject_user_id" gorm:"uniqueIndex;not null"`
	ParentUserID  *uint    `json:"parent_user_id" gorm:"index"`
	Subtype       *Subtype `json:"subtype" gorm:"size:50"`
	DisplayName   string   `json:"display_name" gorm:"size:150"`
	Age           *int     `json:"age"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subject User  `json:"subject" gorm:"foreignKey:SubjectUserID"`
	Parent  *User `json:"parent,omitempty" gorm:"foreignKey:ParentUserID"`
}

func (Profile) TableName() string {
	return "subject_profiles"
}

// State derives the assignment state. Evaluation never changes the subtype.
func (p *Profile) State(hasEvaluations bool) SubtypeState {
	if p.Subtype == nil {
		return StateUnassigned
	}
	if hasEvaluations {
		return StateEvaluated
	}
	return StateSelected
}

// IsManagedBy reports whether the user is the subject or the subject's parent.
func (p *Profile) IsManagedBy(userID uint) bool {
	if p.SubjectUserID == userID {
		return true
	}
	return p.ParentUserID != nil && *p.ParentUserID == userID
}

func (p *Profile) AssignedSubtype() Subtype {
	if p.Subtype == nil {
		return ""
	}
	return *p.Subtype
}
