package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/domain"
)

// maxAttendeesPerBooking bounds attendee_names in one request.
const maxAttendeesPerBooking = 20

// CreateBookingRequest is the request body for POST /public/festivals/{slug}/sessions/{sessionID}/bookings.
type CreateBookingRequest struct {
	Email         string   `json:"email"`
	AttendeeNames []string `json:"attendee_names"`
}

// Validate implements Validator. Blank names are dropped by the service; at least one must remain.
func (b CreateBookingRequest) Validate() []string {
	errs := validateEmail(b.Email)
	named := 0
	for _, n := range b.AttendeeNames {
		if strings.TrimSpace(n) != "" {
			named++
		}
	}
	switch {
	case named == 0:
		errs = append(errs, "at least one attendee name is required")
	case len(b.AttendeeNames) > maxAttendeesPerBooking:
		errs = append(errs, "at most 20 attendees per booking")
	}
	return errs
}

// CreateBookingResponse is the data payload for a new booking. CancelToken is only returned here
// and in the confirmation email.
type CreateBookingResponse struct {
	Booking     *domain.Booking `json:"booking"`
	CancelToken string          `json:"cancel_token"`
}

// CreateBookingSuccessResponse is the success response envelope for a new booking (201).
type CreateBookingSuccessResponse struct {
	Data  CreateBookingResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListBookingsResponse is the data payload for GET /festivals/{festivalID}/sessions/{sessionID}/bookings (200).
type ListBookingsResponse struct {
	Items      []*domain.Booking      `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListBookingsSuccessResponse is the success response envelope for the organizer booking list (200).
type ListBookingsSuccessResponse struct {
	Data  ListBookingsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// BookingController handles attendee bookings and the organizer view of them.
type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

// NewBookingController creates a BookingController with the given logger and service.
func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateBooking godoc
// @Summary Book a session
// @Description Books seats for the named attendees. Capacity is enforced atomically; a confirmation with the cancellation link is emailed.
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Festival slug"
// @Param sessionID path string true "Session ID (UUID)"
// @Param body body CreateBookingRequest true "Attendees and contact email"
// @Success 201 {object} controllers.CreateBookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (full or booking disabled)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /public/festivals/{slug}/sessions/{sessionID}/bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(strings.TrimSpace(r.PathValue("slug")))
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	booking, token, err := c.Service.CreateBooking(r.Context(), slug, sessionID, req.Email, req.AttendeeNames)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateBookingResponse{Booking: booking, CancelToken: token})
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels a booking with the token from the confirmation email.
// @Tags public
// @Param bookingID path string true "Booking ID (UUID)"
// @Param token query string true "Cancellation token"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (wrong token)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /public/bookings/{bookingID} [delete]
func (c *BookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathID(w, r, "bookingID")
	if !ok {
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "token is required")
		return
	}
	if err := c.Service.CancelBooking(r.Context(), bookingID, token); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessionBookings godoc
// @Summary List bookings of a session
// @Description Paginated list of a session's bookings, oldest first. Owner only.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param sessionID path string true "Session ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListBookingsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/sessions/{sessionID}/bookings [get]
func (c *BookingController) ListSessionBookings(w http.ResponseWriter, r *http.Request) {
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
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.ListSessionBookings(r.Context(), festivalID, sessionID, userID, params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if list == nil {
		list = []*domain.Booking{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListBookingsResponse{Items: list, Pagination: meta})
}
