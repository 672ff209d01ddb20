package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	"github.com/BruksfildServices01/coaching-sessions/internal/config"
	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/handlers"
	"github.com/BruksfildServices01/coaching-sessions/internal/middleware"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

// Deps are the process-wide singletons the routes are built from. Cache may be nil.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Repo       domain.Repository
	AuditStore audit.Store
	Audit      *audit.Dispatcher
	Provider   domain.VideoProvider
	Cache      domain.RoomCache
	Calendar   ucsession.Calendar
	Health     map[string]handlers.Check
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		middleware.CORSMiddleware(),
	)

	// ======================================================
	// USE CASES
	// ======================================================
	index := ucsession.NewAvailabilityIndex(d.Repo, d.Calendar, d.Logger)
	guard := ucsession.NewBookingConflictGuard(index)

	rescheduleUC := ucsession.NewRescheduleSession(d.Repo, guard, d.Audit, d.Calendar, d.Logger)
	eligibilityUC := ucsession.NewGetRescheduleEligibility(d.Repo, d.Calendar)
	historyUC := ucsession.NewListRescheduleHistory(d.Repo)

	provisioner := ucsession.NewRoomProvisioner(
		d.Repo,
		d.Provider,
		d.Cache,
		d.Calendar,
		d.Config.VideoTimeout,
		d.Logger,
	)
	admissionUC := ucsession.NewGetAdmission(d.Repo, d.Calendar)
	joinUC := ucsession.NewJoinSession(d.Repo, provisioner, d.Audit, d.Calendar, d.Logger)
	endUC := ucsession.NewEndMeeting(d.Repo, d.Audit, d.Calendar)

	scheduler := ucsession.NewReminderScheduler(d.Repo, d.Audit, d.Calendar, d.Logger)

	// ======================================================
	// HANDLERS
	// ======================================================
	sessionHandler := handlers.NewSessionHandler(rescheduleUC, eligibilityUC, historyUC)
	meetingHandler := handlers.NewMeetingHandler(admissionUC, joinUC, endUC)
	availabilityHandler := handlers.NewAvailabilityHandler(index)
	reminderHandler := handlers.NewReminderHandler(scheduler)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.AuditStore, d.Calendar.Location)
	healthHandler := handlers.NewHealthHandler(d.Health)

	// ======================================================
	// PUBLIC
	// ======================================================
	r.GET("/health", healthHandler.Health)

	// ======================================================
	// AUTHENTICATED
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Config.JWTSecret))

	sessions := api.Group("/sessions")
	{
		sessions.POST("/reschedule", sessionHandler.Reschedule)
		sessions.GET("/:id/reschedule-eligibility", sessionHandler.Eligibility)
		sessions.GET("/:id/reschedule-history", sessionHandler.History)

		sessions.GET("/:id/admission", meetingHandler.Admission)
		sessions.POST("/:id/join", meetingHandler.Join)
		sessions.POST("/:id/end", meetingHandler.End)

		sessions.GET("/:id/reminders", reminderHandler.List)
		sessions.PUT("/:id/reminders", reminderHandler.Set)
	}

	api.GET("/consultants/:id/availability", availabilityHandler.OpenSlots)

	dispatch := api.Group("/reminders")
	dispatch.Use(middleware.RequireRole(middleware.RoleService, middleware.RoleAdmin))
	{
		dispatch.GET("/due", reminderHandler.Due)
		dispatch.POST("/:id/sent", reminderHandler.MarkSent)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/audit-logs", auditLogsHandler.List)
	}
}
