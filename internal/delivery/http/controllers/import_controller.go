package controllers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/domain"
)

// maxImportBodyBytes caps uploaded CSV schedules.
const maxImportBodyBytes = 5 << 20

var (
	sheetIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,128}$`)
	gidRegexp     = regexp.MustCompile(`^[0-9]{1,12}$`)
)

// ImportSheetRequest is the request body for POST /festivals/{festivalID}/import/sheet.
type ImportSheetRequest struct {
	SheetID string `json:"sheet_id"`
	GID     string `json:"gid" example:"0"`
}

// Validate implements Validator.
func (s ImportSheetRequest) Validate() []string {
	var errs []string
	if s.SheetID == "" {
		errs = append(errs, "sheet_id is required")
	} else if !sheetIDRegexp.MatchString(s.SheetID) {
		errs = append(errs, "invalid sheet_id")
	}
	if s.GID != "" && !gidRegexp.MatchString(s.GID) {
		errs = append(errs, "gid must be numeric")
	}
	return errs
}

// ImportSuccessResponse is the success response envelope for imports (200).
type ImportSuccessResponse struct {
	Data  *domain.ImportReport `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ImportController handles schedule imports from CSV uploads and spreadsheets.
type ImportController struct {
	Logger  *slog.Logger
	Service domain.ScheduleService
}

// NewImportController creates an ImportController with the given logger and service.
func NewImportController(logger *slog.Logger, svc domain.ScheduleService) *ImportController {
	return &ImportController{
		Logger:  logger,
		Service: svc,
	}
}

// ImportCSV godoc
// @Summary Import a CSV schedule
// @Description Reconciles the festival's sessions with the uploaded CSV. mode=preview (default) only reports the plan; mode=apply writes it. Sessions with bookings are never deleted: they are kept and listed in flagged.
// @Tags import
// @Accept text/csv
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param mode query string false "preview or apply" Enums(preview, apply)
// @Param body body string true "CSV with header title,day,start_time,end_time[,description,location,teachers,capacity,display_order]"
// @Success 200 {object} controllers.ImportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/import/csv [post]
func (c *ImportController) ImportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	mode, ok := importMode(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeBadRequest, "csv body too large")
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "csv body is required")
		return
	}
	c.runImport(w, r, festivalID, userID, mode, domain.ImportSource{Body: bytes.NewReader(body)})
}

// ImportSheet godoc
// @Summary Import a spreadsheet schedule
// @Description Same as the CSV import, reading the given spreadsheet tab published as CSV.
// @Tags import
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param festivalID path string true "Festival ID (UUID)"
// @Param mode query string false "preview or apply" Enums(preview, apply)
// @Param body body ImportSheetRequest true "Spreadsheet reference"
// @Success 200 {object} controllers.ImportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /festivals/{festivalID}/import/sheet [post]
func (c *ImportController) ImportSheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	festivalID, ok := pathID(w, r, "festivalID")
	if !ok {
		return
	}
	mode, ok := importMode(w, r)
	if !ok {
		return
	}
	var req ImportSheetRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	c.runImport(w, r, festivalID, userID, mode, domain.ImportSource{SheetID: req.SheetID, GID: req.GID})
}

func (c *ImportController) runImport(w http.ResponseWriter, r *http.Request, festivalID, userID, mode string, src domain.ImportSource) {
	var (
		report *domain.ImportReport
		err    error
	)
	if mode == domain.ImportModeApply {
		report, err = c.Service.ApplyImport(r.Context(), festivalID, userID, src)
	} else {
		report, err = c.Service.PreviewImport(r.Context(), festivalID, userID, src)
	}
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// importMode reads ?mode=, defaulting to preview, or writes 400.
func importMode(w http.ResponseWriter, r *http.Request) (string, bool) {
	mode := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode")))
	switch mode {
	case "", domain.ImportModePreview:
		return domain.ImportModePreview, true
	case domain.ImportModeApply:
		return domain.ImportModeApply, true
	}
	helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, `mode must be "preview" or "apply"`)
	return "", false
}
