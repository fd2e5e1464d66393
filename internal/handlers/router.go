package handlers

import (
	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/session"
	"github.com/dyslexiaaid/screening-service/internal/speech"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/dyslexiaaid/screening-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	accountHandler    *AccountHandler
	subjectHandler    *SubjectHandler
	evaluationHandler *EvaluationHandler
	dashboardHandler  *DashboardHandler
	lessonHandler     *LessonHandler
	speechHandler     *SpeechHandler
	exportHandler     *ExportHandler

	accounts services.AccountService
	verifier auth.TokenVerifier
	logger   utils.Logger
}

// NewHandlerManager builds every handler. verifier may be nil, in which case
// only staff sessions reach admin routes.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	recognizer speech.Recognizer,
	verifier auth.TokenVerifier,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		accountHandler:    NewAccountHandler(serviceManager.Account(), logger),
		subjectHandler:    NewSubjectHandler(serviceManager.Profile(), validator, logger),
		evaluationHandler: NewEvaluationHandler(serviceManager.Evaluation(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		lessonHandler:     NewLessonHandler(serviceManager.Lesson(), logger),
		speechHandler:     NewSpeechHandler(recognizer, logger),
		exportHandler:     NewExportHandler(serviceManager.Export(), logger),
		accounts:          serviceManager.Account(),
		verifier:          verifier,
		logger:            logger,
	}
}

// NewRouter returns an engine with recovery, request logging, sessions and
// user loading installed ahead of the routes.
func (hm *HandlerManager) NewRouter(sessionSecret string, secureCookies bool) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.LoggerMiddleware(hm.logger),
		session.Middleware(sessionSecret, secureCookies),
		UserLoader(hm.accounts, hm.logger),
	)
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// Public account routes
	router.POST("/register/parent", hm.accountHandler.RegisterParent)
	router.POST("/register/independent", hm.accountHandler.RegisterIndependent)
	router.POST("/login", hm.accountHandler.Login)
	router.POST("/logout", hm.accountHandler.Logout)

	authed := router.Group("", AuthRequired())
	{
		authed.GET("/login/redirect", hm.accountHandler.LoginRedirect)
		authed.POST("/register/child", hm.accountHandler.RegisterChild)
		authed.POST("/switch-back", hm.accountHandler.SwitchBack)

		// Parent routes
		authed.GET("/dashboard/parent", hm.accountHandler.ParentDashboard)
		children := authed.Group("/children/:child_id")
		{
			children.POST("/delete", hm.accountHandler.DeleteChild)
			children.POST("/switch", hm.accountHandler.SwitchToChild)
			children.POST("/profile", hm.accountHandler.UpdateProfile)
		}

		// Subtype assignment
		authed.GET("/subjects/:child_id/type-selection", hm.subjectHandler.TypeSelectionForm)
		authed.POST("/subjects/:child_id/type-selection", hm.subjectHandler.SelectType)

		// Evaluation
		authed.GET("/evaluation/results/:child_id", hm.dashboardHandler.Results)
		authed.GET("/evaluation/:subtype", hm.evaluationHandler.Questions)
		authed.POST("/evaluation/:subtype", hm.evaluationHandler.Submit)
		authed.GET("/dashboard/child/:child_id", hm.dashboardHandler.ChildDashboard)

		// Lessons
		authed.GET("/lessons", hm.lessonHandler.ListLessons)
		authed.GET("/lessons/:id", hm.lessonHandler.GetLesson)
		authed.POST("/lessons/:id/attempts", hm.lessonHandler.RecordAttempt)

		authed.POST("/speech-to-text", hm.speechHandler.SpeechToText)
	}

	admin := router.Group("/admin", AdminRequired(hm.verifier, hm.logger))
	{
		admin.GET("/export", hm.exportHandler.ExportEvaluations)
	}
}
