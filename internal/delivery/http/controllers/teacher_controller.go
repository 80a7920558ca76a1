package controllers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/domain"
)

// maxBulkTeachers bounds one bulk create request.
const maxBulkTeachers = 200

// CreateTeacherRequest is the request body for POST /festivals/{festivalID}/teachers.
type CreateTeacherRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

// Validate implements Validator.
func (t CreateTeacherRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, "name is required")
	}
	if t.PhotoURL != "" {
		if u, err := url.Parse(t.PhotoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "photo_url must be an http(s) URL")
		}
	}
	return errs
}

// BulkCreateTeachersRequest is the request body for POST /festivals/{festivalID}/teachers/bulk.
// Items are validated by the service one by one so a bad item does not reject the batch.
type BulkCreateTeachersRequest struct {
	Teachers []CreateTeacherRequest `json:"teachers"`
}

// Validate implements Validator.
func (b BulkCreateTeachersRequest) Validate() []string {
	if len(b.Teachers) == 0 {
		return []string{"teachers is required"}
	}
	if len(b.Teachers) > maxBulkTeachers {
		return []string{"at most 200 teachers per request"}
	}
	return nil
}

// BulkCreateTeachersResponse is the data payload for a bulk create.
type BulkCreateTeachersResponse struct {
	Created []*domain.Teacher `json:"created"`
	Failed  []string          `json:"failed"`
}

// TeacherSuccessResponse is the success response envelope for a single teacher.
type TeacherSuccessResponse struct {
	Data  *domain.Teacher   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// TeacherListSuccessResponse is the success response envelope for GET /festivals/{festivalID}/teachers (200).
type TeacherListSuccessResponse struct {
	Data  []*domain.Teacher `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BulkCreateTeachersSuccessResponse is the success response envelope for a bulk create (200).
type BulkCreateTeachersSuccessResponse struct {
	Data  BulkCreateTeachersResponse `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// TeacherController handles festival teachers.
type TeacherController struct {
	Logger  *slog.Logger
	Service domain.TeacherService
}

// NewTeacherController creates a TeacherController with the given logger and service.
func NewTeacherController(logger *slog.Logger, svc domain.TeacherService) *TeacherController {
	return &TeacherController{
		Logger:  logger,
		Service: svc,
	}
}

// ListTeachers godoc
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Success 200 {object} controllers.TeacherListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/teachers [get]
func (c *TeacherController) ListTeachers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	teachers, err := c.Service.ListTeachers(r.Context(), festivalID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if teachers == nil {
		teachers = []*domain.Teacher{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, teachers)
}

// CreateTeacher godoc
// @Summary Create a teacher
// @Tags teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param body body CreateTeacherRequest true "Teacher data"
// @Success 201 {object} controllers.TeacherSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (name taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/teachers [post]
func (c *TeacherController) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	var req CreateTeacherRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	now := time.Now()
	teacher := domain.NewTeacher(festivalID, req.Name, req.Bio, req.PhotoURL, now, now)
	if err := c.Service.CreateTeacher(r.Context(), userID, teacher); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, teacher)
}

// BulkCreateTeachers godoc
// @Summary Create many teachers
// @Description Creates each teacher independently. Items that fail are listed in failed and do not stop the batch.
// @Tags teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param body body BulkCreateTeachersRequest true "Teachers"
// @Success 200 {object} controllers.BulkCreateTeachersSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/teachers/bulk [post]
func (c *TeacherController) BulkCreateTeachers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	var req BulkCreateTeachersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	now := time.Now()
	teachers := make([]*domain.Teacher, 0, len(req.Teachers))
	for _, t := range req.Teachers {
		teachers = append(teachers, domain.NewTeacher(festivalID, t.Name, t.Bio, t.PhotoURL, now, now))
	}
	created, failed, err := c.Service.BulkCreateTeachers(r.Context(), festivalID, userID, teachers)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, BulkCreateTeachersResponse{Created: created, Failed: failed})
}

// DeleteTeacher godoc
// @Summary Delete a teacher
// @Description Removes the teacher and unassigns them from every session.
// @Tags teachers
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param teacherID path string true "Teacher ID (UUID)"
// @Success 204 "No Content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/teachers/{teacherID} [delete]
func (c *TeacherController) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	teacherID, ok := pathID(w, r, "teacherID")
	if !ok {
		return
	}
	if err := c.Service.DeleteTeacher(r.Context(), festivalID, teacherID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
