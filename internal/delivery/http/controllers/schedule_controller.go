package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/delivery/http/middleware"
	"festivalscheduling/internal/domain"

	"github.com/google/uuid"
)

// CreateSessionRequest is the request body for POST /festivals/{festivalID}/sessions.
// Day is an ISO date or a weekday name; times are "HH:MM" or full ISO datetimes.
type CreateSessionRequest struct {
	Title        string   `json:"title"`
	Day          string   `json:"day" example:"2025-11-14"`
	StartTime    string   `json:"start_time" example:"09:00"`
	EndTime      string   `json:"end_time" example:"10:30"`
	DisplayOrder *float64 `json:"display_order"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	Capacity     *int     `json:"capacity"`
	TeacherIDs   []string `json:"teacher_ids"`
}

// Validate implements Validator.
func (c CreateSessionRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Day) == "" {
		errs = append(errs, "day is required")
	}
	if strings.TrimSpace(c.StartTime) == "" {
		errs = append(errs, "start_time is required")
	}
	if strings.TrimSpace(c.EndTime) == "" {
		errs = append(errs, "end_time is required")
	}
	if c.Capacity != nil && *c.Capacity < 0 {
		errs = append(errs, "capacity cannot be negative")
	}
	return append(errs, validateUUIDs("teacher_ids", c.TeacherIDs)...)
}

// UpdateSessionRequest is the request body for PATCH /festivals/{festivalID}/sessions/{sessionID}.
// Omitted fields are unchanged; an empty teacher_ids list clears the teachers.
type UpdateSessionRequest struct {
	Title        *string  `json:"title"`
	Day          *string  `json:"day"`
	StartTime    *string  `json:"start_time"`
	EndTime      *string  `json:"end_time"`
	DisplayOrder *float64 `json:"display_order"`
	Description  *string  `json:"description"`
	Location     *string  `json:"location"`
	Capacity     *int     `json:"capacity"`
	TeacherIDs   []string `json:"teacher_ids"`
}

// Validate implements Validator.
func (u UpdateSessionRequest) Validate() []string {
	var errs []string
	required := []struct {
		field string
		value *string
	}{
		{"title", u.Title},
		{"day", u.Day},
		{"start_time", u.StartTime},
		{"end_time", u.EndTime},
	}
	for _, f := range required {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			errs = append(errs, f.field+" cannot be empty")
		}
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		errs = append(errs, "capacity cannot be negative")
	}
	return append(errs, validateUUIDs("teacher_ids", u.TeacherIDs)...)
}

// ReorderSessionsRequest is the request body for PUT /festivals/{festivalID}/sessions/order.
type ReorderSessionsRequest struct {
	Orders []domain.DisplayOrderUpdate `json:"orders"`
}

// Validate implements Validator.
func (o ReorderSessionsRequest) Validate() []string {
	if len(o.Orders) == 0 {
		return []string{"orders is required"}
	}
	ids := make([]string, 0, len(o.Orders))
	for _, u := range o.Orders {
		ids = append(ids, u.SessionID)
	}
	return validateUUIDs("orders.session_id", ids)
}

func validateUUIDs(field string, ids []string) []string {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return []string{field + " must contain only UUIDs"}
		}
	}
	return nil
}

// NormalizeResponse is the response body for POST /festivals/{festivalID}/sessions/normalize.
type NormalizeResponse struct {
	Changed int                         `json:"changed"`
	Changes []domain.DisplayOrderChange `json:"changes"`
}

// SessionSuccessResponse is the success response envelope for a single session.
type SessionSuccessResponse struct {
	Data  *domain.Session   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SessionListSuccessResponse is the success response envelope for GET /festivals/{festivalID}/sessions (200).
type SessionListSuccessResponse struct {
	Data  []*domain.Session `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// NormalizeSuccessResponse is the success response envelope for POST /festivals/{festivalID}/sessions/normalize (200).
type NormalizeSuccessResponse struct {
	Data  NormalizeResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// PublicScheduleSuccessResponse is the success response envelope for the public schedule (200).
type PublicScheduleSuccessResponse struct {
	Data  *domain.PublicSchedule `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ScheduleController handles a festival's timetable.
type ScheduleController struct {
	Logger  *slog.Logger
	Service domain.ScheduleService
}

// NewScheduleController creates a ScheduleController with the given logger and service.
func NewScheduleController(logger *slog.Logger, svc domain.ScheduleService) *ScheduleController {
	return &ScheduleController{
		Logger:  logger,
		Service: svc,
	}
}

// ListSessions godoc
// @Summary List festival sessions
// @Description Returns all sessions of the festival in schedule order: by day, then start, then display order. Sessions without a display order come last in their slot.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions [get]
func (c *ScheduleController) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	sessions, err := c.Service.ListSessions(r.Context(), festivalID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sessions)
}

// CreateSession godoc
// @Summary Create a session
// @Description Adds a session to the festival. Weekday names are resolved against the festival start date; display order defaults to 0.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param body body CreateSessionRequest true "Session data"
// @Success 201 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions [post]
func (c *ScheduleController) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	var req CreateSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	now := time.Now()
	session := domain.NewSession(festivalID, req.Title, req.Day, req.StartTime, req.EndTime, now, now)
	session.DisplayOrder = req.DisplayOrder
	session.Description = req.Description
	session.Location = req.Location
	session.Capacity = req.Capacity
	if req.TeacherIDs != nil {
		session.TeacherIDs = req.TeacherIDs
	}
	if err := c.Service.CreateSession(r.Context(), userID, session); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, session)
}

// UpdateSession godoc
// @Summary Update a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param sessionID path string true "Session ID (UUID)"
// @Param body body UpdateSessionRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions/{sessionID} [patch]
func (c *ScheduleController) UpdateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	update := domain.SessionUpdate{
		Title:        req.Title,
		Day:          req.Day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		DisplayOrder: req.DisplayOrder,
		Description:  req.Description,
		Location:     req.Location,
		Capacity:     req.Capacity,
		TeacherIDs:   req.TeacherIDs,
	}
	session, err := c.Service.UpdateSession(r.Context(), festivalID, sessionID, userID, update)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, session)
}

// DeleteSession godoc
// @Summary Delete a session
// @Description Deletes a session. Sessions with bookings cannot be deleted.
// @Tags sessions
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param sessionID path string true "Session ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (session has bookings)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions/{sessionID} [delete]
func (c *ScheduleController) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	if err := c.Service.DeleteSession(r.Context(), festivalID, sessionID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderSessions godoc
// @Summary Set display orders
// @Description Assigns explicit display orders to sessions of the festival in one transaction.
// @Tags sessions
// @Accept json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param body body ReorderSessionsRequest true "New display orders"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions/order [put]
func (c *ScheduleController) ReorderSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	var req ReorderSessionsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ReorderSessions(r.Context(), festivalID, userID, req.Orders); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NormalizeDisplayOrders godoc
// @Summary Normalize display orders
// @Description Rewrites display orders to 0..n-1 within each day and start slot, keeping the current order. Running it twice changes nothing the second time.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Success 200 {object} controllers.NormalizeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions/normalize [post]
func (c *ScheduleController) NormalizeDisplayOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	changes, err := c.Service.NormalizeDisplayOrders(r.Context(), festivalID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, NormalizeResponse{Changed: len(changes), Changes: changes})
}

// GetPublicSchedule godoc
// @Summary Public festival schedule
// @Description Returns the published timetable grouped by day with remaining seats. No attendee data is included.
// @Tags public
// @Produce json
// @Param slug path string true "Festival slug"
// @Success 200 {object} controllers.PublicScheduleSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /public/festivals/{slug}/schedule [get]
func (c *ScheduleController) GetPublicSchedule(w http.ResponseWriter, r *http.Request) {
	c.writePublicSchedule(w, r, r.PathValue("slug"))
}

// GetTenantSchedule godoc
// @Summary Public schedule of the current festival host
// @Description Same as the public schedule, with the festival resolved from the {slug}.{base domain} host.
// @Tags public
// @Produce json
// @Success 200 {object} controllers.PublicScheduleSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /schedule [get]
func (c *ScheduleController) GetTenantSchedule(w http.ResponseWriter, r *http.Request) {
	slug, _ := middleware.FestivalSlugFromContext(r.Context())
	c.writePublicSchedule(w, r, slug)
}

func (c *ScheduleController) writePublicSchedule(w http.ResponseWriter, r *http.Request, slug string) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "festival not found")
		return
	}
	schedule, err := c.Service.GetPublicSchedule(r.Context(), slug)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, schedule)
}
