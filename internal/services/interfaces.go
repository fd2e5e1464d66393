package services

import (
	"context"
	"io"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type AccountService interface {
	RegisterParent(ctx context.Context, req *RegisterRequest) (*models.User, error)
	RegisterIndependent(ctx context.Context, req *RegisterRequest) (*models.User, *models.Profile, error)
	RegisterChild(ctx context.Context, parent *models.User, req *RegisterChildRequest) (*models.Profile, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)

	ListChildren(ctx context.Context, parent *models.User) ([]*ChildSummary, error)
	DeleteChild(ctx context.Context, parent *models.User, childUserID uint) error
	SwitchToChild(ctx context.Context, parent *models.User, childUserID uint) (*models.Profile, error)
	UpdateProfile(ctx context.Context, actor *models.User, subjectUserID uint, req *UpdateProfileRequest) (*models.Profile, error)

	// LandingPath is where a freshly signed-in user should go.
	LandingPath(ctx context.Context, user *models.User) (string, error)
}

type ProfileService interface {
	GetSubject(ctx context.Context, actor *models.User, subjectUserID uint) (*models.Profile, error)
	SelectSubtype(ctx context.Context, actor *models.User, subjectUserID uint, subtype models.Subtype) (*SelectionResult, error)

	// ResolveSubject finds the profile an evaluation by actor belongs to.
	// It returns (nil, nil) when no subject can be determined.
	ResolveSubject(ctx context.Context, actor *models.User, currentSubjectID *uint) (*models.Profile, error)
}

type EvaluationService interface {
	Questions(subtype models.Subtype) []models.QuestionView
	Submit(ctx context.Context, actor *models.User, subtype models.Subtype, batch models.ResponseBatch, evalCtx EvaluationContext) (*SubmissionResult, error)
	LatestSummary(ctx context.Context, profileID uint) (*models.EvaluationSummary, error)
}

type DashboardService interface {
	ChildDashboard(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*DashboardView, error)
	Results(ctx context.Context, actor *models.User, subjectUserID uint, pending *models.EvaluationSummary) (*ResultsView, error)
}

type ExportService interface {
	BuildTable(ctx context.Context, filters repositories.EvaluationFilters) (*ExportTable, error)
	Write(ctx context.Context, w io.Writer, format ExportFormat, filters repositories.EvaluationFilters) error
}

type LessonService interface {
	List(ctx context.Context, actor *models.User) (*LessonListView, error)
	Get(ctx context.Context, actor *models.User, lessonID uint) (*models.Lesson, error)
	RecordAttempt(ctx context.Context, actor *models.User, lessonID uint, req *LessonAttemptRequest) (*models.LessonAttempt, error)
}

// ===== REQUEST STRUCTURES =====

type RegisterRequest struct {
	Username        string `form:"username" json:"username" validate:"required,min=3,max=150,username"`
	Email           string `form:"email" json:"email" validate:"omitempty,email,max=255"`
	Password        string `form:"password1" json:"password1" validate:"required,min=8,max=128"`
	PasswordConfirm string `form:"password2" json:"password2" validate:"required,eqfield=Password"`
}

type RegisterChildRequest struct {
	RegisterRequest
	DisplayName string `form:"display_name" json:"display_name" validate:"omitempty,max=150"`
	Age         *int   `form:"age" json:"age" validate:"omitempty,min=3,max=25"`
}

type UpdateProfileRequest struct {
	DisplayName string `form:"display_name" json:"display_name" validate:"omitempty,max=150"`
	Age         *int   `form:"age" json:"age" validate:"omitempty,min=3,max=120"`
}

type LessonAttemptRequest struct {
	SelectedChoice string `json:"selected_choice" validate:"omitempty,lesson_choice"`
	TimeSpentMs    int    `json:"time_spent_ms" validate:"min=0"`
	TTSPlays       int    `json:"tts_plays" validate:"min=0"`
	Repeats        int    `json:"repeats" validate:"min=0"`
}

// EvaluationContext carries session-held state into a submission.
type EvaluationContext struct {
	CurrentSubjectID *uint
}

// ===== RESPONSE STRUCTURES =====

type ChildSummary struct {
	Profile        *models.Profile     `json:"profile"`
	State          models.SubtypeState `json:"state"`
	EvaluationsRun int64               `json:"evaluations_run"`
}

type SelectionResult struct {
	Profile *models.Profile `json:"profile"`
	Changed bool            `json:"changed"`
}

type SubmissionResult struct {
	Result   *models.EvaluationResult `json:"result"`
	RecordID uint                     `json:"record_id"`
	Profile  *models.Profile          `json:"profile,omitempty"`
}

// Summary is the short form kept for the dashboard.
func (r *SubmissionResult) Summary() models.EvaluationSummary {
	summary := models.EvaluationSummary{
		RecordID:       r.RecordID,
		Subtype:        r.Result.Subtype,
		Score:          r.Result.Score,
		TotalQuestions: r.Result.TotalQuestions,
		Percentage:     r.Result.Percentage,
	}
	if r.Profile != nil {
		summary.SubjectUserID = r.Profile.SubjectUserID
	}
	return summary
}

type ProgressView struct {
	Points     int             `json:"points"`
	Completed  int             `json:"completed"`
	Total      int             `json:"total"`
	Percentage float64         `json:"percentage"`
	Severity   models.Severity `json:"severity,omitempty"`
}

type DashboardView struct {
	Profile             *models.Profile            `json:"profile"`
	State               models.SubtypeState        `json:"state"`
	AssignedSubtype     models.Subtype             `json:"assigned_type,omitempty"`
	SuggestedSubtype    *string                    `json:"suggested_type,omitempty"`
	Modules             []models.RemediationModule `json:"modules"`
	Progress            ProgressView               `json:"progress"`
	EvaluationCompleted bool                       `json:"evaluation_completed"`
	LastEvaluation      *models.EvaluationSummary  `json:"last_evaluation,omitempty"`
}

type ResultsView struct {
	Profile    *models.Profile           `json:"profile"`
	Evaluation *models.EvaluationSummary `json:"evaluation,omitempty"`
	Subtype    models.Subtype            `json:"dyslexia_type,omitempty"`
	Percentage float64                   `json:"percentage"`
	Severity   models.Severity           `json:"severity"`
	ReviewedAt time.Time                 `json:"reviewed_at"`
}

type LessonListView struct {
	Subtype *models.Subtype  `json:"dyslexia_type,omitempty"`
	Lessons []*models.Lesson `json:"lessons"`
}
