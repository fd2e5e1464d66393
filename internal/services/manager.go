package services

import (
	"log/slog"

	"github.com/dyslexiaaid/screening-service/internal/cache"
	"github.com/dyslexiaaid/screening-service/internal/classifier"
	"github.com/dyslexiaaid/screening-service/internal/events"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/scoring"
	"github.com/dyslexiaaid/screening-service/internal/validator"
)

// ServiceManager hands each handler the service it needs.
type ServiceManager interface {
	Account() AccountService
	Profile() ProfileService
	Evaluation() EvaluationService
	Dashboard() DashboardService
	Export() ExportService
	Lesson() LessonService
}

// Dependencies are the process-wide collaborators shared by every service.
type Dependencies struct {
	Repository repositories.Repository
	Publisher  events.EventPublisher
	Cache      cache.CacheService
	Suggester  classifier.Suggester
	Scorer     *scoring.Scorer
	Validator  *validator.Validator
	Logger     *slog.Logger
}

type serviceManager struct {
	account    AccountService
	profile    ProfileService
	evaluation EvaluationService
	dashboard  DashboardService
	export     ExportService
	lesson     LessonService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	scorer := deps.Scorer
	if scorer == nil {
		scorer = scoring.NewScorer()
	}

	profiles := NewProfileService(deps.Repository, deps.Publisher, deps.Logger)
	evaluations := NewEvaluationService(deps.Repository, profiles, scorer, deps.Publisher, deps.Cache, deps.Logger)

	return &serviceManager{
		account:    NewAccountService(deps.Repository, deps.Publisher, deps.Validator, deps.Logger),
		profile:    profiles,
		evaluation: evaluations,
		dashboard:  NewDashboardService(deps.Repository, profiles, evaluations, deps.Suggester, deps.Cache, deps.Logger),
		export:     NewExportService(deps.Repository, deps.Logger),
		lesson:     NewLessonService(deps.Repository, deps.Publisher, deps.Validator, deps.Logger),
	}
}

func (m *serviceManager) Account() AccountService       { return m.account }
func (m *serviceManager) Profile() ProfileService       { return m.profile }
func (m *serviceManager) Evaluation() EvaluationService { return m.evaluation }
func (m *serviceManager) Dashboard() DashboardService   { return m.dashboard }
func (m *serviceManager) Export() ExportService         { return m.export }
func (m *serviceManager) Lesson() LessonService         { return m.lesson }
