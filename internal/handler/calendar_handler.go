package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type calendarService interface {
	List(ctx context.Context, userID string, filter models.CalendarFilter) ([]models.CalendarEvent, error)
	Create(ctx context.Context, userID, periodID string, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Update(ctx context.Context, userID, id string, req models.CalendarEventRequest) (*models.CalendarEvent, error)
	Delete(ctx context.Context, userID, id string) error
	Reminders(ctx context.Context, userID, day string) ([]models.CalendarEvent, error)
	Extract(ctx context.Context, req models.ExtractEventsRequest) ([]models.ExtractedEvent, error)
	Import(ctx context.Context, userID, periodID string, req models.ImportEventsRequest) ([]models.CalendarEvent, error)
}

// CalendarHandler exposes calendar event endpoints.
type CalendarHandler struct {
	events calendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(events calendarService) *CalendarHandler {
	return &CalendarHandler{events: events}
}

// List godoc
// @Summary List events
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param periodId query string false "Period ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *CalendarHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rng, ok := dateRange(c)
	if !ok {
		return
	}
	filter := models.CalendarFilter{PeriodID: strings.TrimSpace(c.Query("periodId")), DateRange: rng}
	events, err := h.events.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Create godoc
// @Summary Create event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body models.CalendarEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /periods/{id}/events [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.events.Create(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body models.CalendarEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CalendarEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.events.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Calendar
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reminders godoc
// @Summary Due reminders
// @Description Events whose reminder lead time lands on the given day
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param day query string false "Day (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /events/reminders [get]
func (h *CalendarHandler) Reminders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	events, err := h.events.Reminders(c.Request.Context(), userID, strings.TrimSpace(c.Query("day")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Extract godoc
// @Summary Extract events from text
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ExtractEventsRequest true "Source text"
// @Success 200 {object} response.Envelope
// @Failure 501 {object} response.Envelope
// @Router /events/extract [post]
func (h *CalendarHandler) Extract(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req models.ExtractEventsRequest
	if !bindJSON(c, &req, "invalid extraction payload") {
		return
	}
	candidates, err := h.events.Extract(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, candidates)
}

// Import godoc
// @Summary Import extracted events
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body models.ImportEventsRequest true "Candidates"
// @Success 201 {object} response.Envelope
// @Router /periods/{id}/events/import [post]
func (h *CalendarHandler) Import(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ImportEventsRequest
	if !bindJSON(c, &req, "invalid import payload") {
		return
	}
	events, err := h.events.Import(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, events)
}
