package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Enrollments  *EnrollmentHandler
	Periods      *PeriodHandler
	Disciplines  *DisciplineHandler
	Absences     *AbsenceHandler
	Calendar     *CalendarHandler
	Todos        *TodoHandler
	Curriculum   *CurriculumHandler
	Documents    *DocumentHandler
	StudySession *StudySessionHandler
	Dashboard    *DashboardHandler
	Transcript   *TranscriptHandler
	Navigation   *NavigationHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the API on group. auth guards every route except login, register,
// refresh and signed file downloads.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	public := group.Group("")
	public.POST("/auth/register", h.Auth.Register)
	public.POST("/auth/login", h.Auth.Login)
	public.POST("/auth/refresh", h.Auth.Refresh)
	public.GET("/files/:token", h.Documents.Signed)

	api := group.Group("", auth)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me)
	api.PUT("/account/profile", h.Users.UpdateProfile)
	api.PUT("/account/password", h.Users.ChangePassword)
	api.DELETE("/account", h.Users.Delete)

	api.GET("/enrollments", h.Enrollments.List)
	api.POST("/enrollments", h.Enrollments.Create)
	api.PUT("/enrollments/reorder", h.Enrollments.Reorder)
	api.GET("/enrollments/:id", h.Enrollments.Get)
	api.PUT("/enrollments/:id", h.Enrollments.Update)
	api.DELETE("/enrollments/:id", h.Enrollments.Delete)
	api.GET("/enrollments/:id/periods", h.Periods.List)
	api.POST("/enrollments/:id/periods", h.Periods.Create)
	api.POST("/enrollments/:id/periods/auto-close", h.Periods.AutoClose)
	api.GET("/enrollments/:id/curriculum", h.Curriculum.List)
	api.POST("/enrollments/:id/curriculum", h.Curriculum.Create)
	api.GET("/enrollments/:id/curriculum/progress", h.Curriculum.Progress)
	api.GET("/enrollments/:id/transcript", h.Transcript.Get)
	api.GET("/enrollments/:id/transcript/export", h.Transcript.Export)

	api.GET("/periods/:id", h.Periods.Get)
	api.PUT("/periods/:id", h.Periods.Update)
	api.DELETE("/periods/:id", h.Periods.Delete)
	api.POST("/periods/:id/close", h.Periods.Close)
	api.POST("/periods/:id/reopen", h.Periods.Reopen)
	api.GET("/periods/:id/disciplines", h.Disciplines.List)
	api.POST("/periods/:id/disciplines", h.Disciplines.Create)
	api.POST("/periods/:id/events", h.Calendar.Create)
	api.POST("/periods/:id/events/import", h.Calendar.Import)

	api.PUT("/disciplines/reorder", h.Disciplines.Reorder)
	api.GET("/disciplines/:id", h.Disciplines.Get)
	api.PUT("/disciplines/:id", h.Disciplines.Update)
	api.DELETE("/disciplines/:id", h.Disciplines.Delete)
	api.PUT("/disciplines/:id/grade-config", h.Disciplines.UpdateGradeConfig)
	api.PUT("/disciplines/:id/grades", h.Disciplines.UpdateGrades)
	api.GET("/disciplines/:id/summary", h.Disciplines.Summary)
	api.GET("/disciplines/:id/absences", h.Absences.List)
	api.POST("/disciplines/:id/absences", h.Absences.Record)
	api.DELETE("/disciplines/:id/absences/:absenceId", h.Absences.Remove)

	api.GET("/events", h.Calendar.List)
	api.GET("/events/reminders", h.Calendar.Reminders)
	api.POST("/events/extract", h.Calendar.Extract)
	api.PUT("/events/:id", h.Calendar.Update)
	api.DELETE("/events/:id", h.Calendar.Delete)

	api.GET("/todos", h.Todos.List)
	api.POST("/todos", h.Todos.Create)
	api.DELETE("/todos/completed", h.Todos.ClearCompleted)
	api.PATCH("/todos/:id/complete", h.Todos.ToggleCompleted)
	api.PATCH("/todos/:id/pin", h.Todos.TogglePinned)
	api.DELETE("/todos/:id", h.Todos.Delete)

	api.DELETE("/curriculum/:id", h.Curriculum.Delete)

	api.GET("/documents", h.Documents.List)
	api.POST("/documents", h.Documents.Upload)
	api.GET("/documents/:id", h.Documents.Get)
	api.DELETE("/documents/:id", h.Documents.Delete)
	api.GET("/documents/:id/download", h.Documents.Download)
	api.GET("/documents/:id/thumbnail", h.Documents.Thumbnail)
	api.POST("/documents/:id/signed-url", h.Documents.SignedURL)

	api.GET("/study-sessions", h.StudySession.List)
	api.POST("/study-sessions", h.StudySession.Create)
	api.GET("/study-sessions/stats", h.StudySession.Stats)

	api.GET("/dashboard", h.Dashboard.Get)

	api.GET("/navigation", h.Navigation.Get)
	api.PUT("/navigation/enrollment", h.Navigation.SelectEnrollment)
	api.PUT("/navigation/period", h.Navigation.SelectPeriod)
	api.PUT("/navigation/editing", h.Navigation.SetEditing)

	api.GET("/metrics/system", h.Metrics.System)
}
