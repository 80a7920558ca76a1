package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/domain"
)

// dateLayout is the wire format for festival start and end dates.
const dateLayout = "2006-01-02"

// CreateFestivalRequest is the request body for POST /festivals.
type CreateFestivalRequest struct {
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Description    *string `json:"description"`
	StartDate      *string `json:"start_date" example:"2025-11-13"`
	EndDate        *string `json:"end_date" example:"2025-11-16"`
	Timezone       string  `json:"timezone" example:"Europe/Berlin"`
	BookingEnabled bool    `json:"booking_enabled"`
}

// Validate implements Validator. Slug format and timezone are checked by the service.
func (c CreateFestivalRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Slug) == "" {
		errs = append(errs, "slug is required")
	}
	errs = append(errs, validateDate("start_date", c.StartDate)...)
	errs = append(errs, validateDate("end_date", c.EndDate)...)
	return errs
}

// UpdateFestivalRequest is the request body for PATCH /festivals/{festivalID}. All fields optional.
type UpdateFestivalRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	StartDate      *string `json:"start_date" example:"2025-11-13"`
	EndDate        *string `json:"end_date" example:"2025-11-16"`
	Timezone       *string `json:"timezone"`
	BookingEnabled *bool   `json:"booking_enabled"`
}

// Validate implements Validator.
func (u UpdateFestivalRequest) Validate() []string {
	var errs []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	errs = append(errs, validateDate("start_date", u.StartDate)...)
	errs = append(errs, validateDate("end_date", u.EndDate)...)
	return errs
}

func validateDate(field string, value *string) []string {
	if value == nil {
		return nil
	}
	if _, err := time.Parse(dateLayout, *value); err != nil {
		return []string{field + " must be a date formatted YYYY-MM-DD"}
	}
	return nil
}

// parseDate converts an already validated date field.
func parseDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil
	}
	return &t
}

// FestivalSuccessResponse is the success response envelope for a single festival.
type FestivalSuccessResponse struct {
	Data  *domain.Festival  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// FestivalListSuccessResponse is the success response envelope for GET /festivals/me (200).
type FestivalListSuccessResponse struct {
	Data  []*domain.Festival `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// FestivalController handles organizer festival management.
type FestivalController struct {
	Logger  *slog.Logger
	Service domain.FestivalService
}

// NewFestivalController creates a FestivalController with the given logger and service.
func NewFestivalController(logger *slog.Logger, svc domain.FestivalService) *FestivalController {
	return &FestivalController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateFestival godoc
// @Summary Create a festival
// @Description Creates a festival owned by the authenticated organizer. The slug becomes the public subdomain and must be unique.
// @Tags festivals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateFestivalRequest true "Festival data"
// @Success 201 {object} controllers.FestivalSuccessResponse "data contains the created festival"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (slug taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals [post]
func (c *FestivalController) CreateFestival(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateFestivalRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	now := time.Now()
	festival := domain.NewFestival(req.Name, req.Slug, userID, now, now)
	festival.Description = req.Description
	festival.StartDate = parseDate(req.StartDate)
	festival.EndDate = parseDate(req.EndDate)
	if req.Timezone != "" {
		festival.Timezone = req.Timezone
	}
	festival.BookingEnabled = req.BookingEnabled
	if err := c.Service.CreateFestival(r.Context(), festival); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, festival)
}

// ListMyFestivals godoc
// @Summary List my festivals
// @Description Returns the festivals owned by the authenticated organizer.
// @Tags festivals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.FestivalListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/me [get]
func (c *FestivalController) ListMyFestivals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivals, err := c.Service.ListMyFestivals(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, festivals)
}

// GetFestival godoc
// @Summary Get a festival
// @Tags festivals
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Success 200 {object} controllers.FestivalSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID} [get]
func (c *FestivalController) GetFestival(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	festival, err := c.Service.GetFestival(r.Context(), festivalID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, festival)
}

// UpdateFestival godoc
// @Summary Update a festival
// @Description Updates festival details. Omitted fields are unchanged. The slug cannot be changed.
// @Tags festivals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param body body UpdateFestivalRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.FestivalSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID} [patch]
func (c *FestivalController) UpdateFestival(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	var req UpdateFestivalRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	update := domain.FestivalUpdate{
		Name:           req.Name,
		Description:    req.Description,
		StartDate:      parseDate(req.StartDate),
		EndDate:        parseDate(req.EndDate),
		Timezone:       req.Timezone,
		BookingEnabled: req.BookingEnabled,
	}
	festival, err := c.Service.UpdateFestival(r.Context(), festivalID, userID, update)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, festival)
}

// DeleteFestival godoc
// @Summary Delete a festival
// @Description Deletes the festival with its sessions, teachers and bookings.
// @Tags festivals
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID} [delete]
func (c *FestivalController) DeleteFestival(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	if err := c.Service.DeleteFestival(r.Context(), festivalID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
