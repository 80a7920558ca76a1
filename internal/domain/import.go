package domain

import (
	"context"
	"io"
)

// Import modes.
const (
	ImportModePreview = "preview"
	ImportModeApply   = "apply"
)

// Row warning kinds reported by the importer.
const (
	WarningMalformedRow     = "malformed_row"
	WarningAmbiguousDateKey = "ambiguous_date_key"
	WarningUnknownTeacher   = "unknown_teacher"
	WarningProtectedSession = "protected_session"
	WarningInvalidField     = "invalid_field"
)

// Merge actions used in plan samples.
const (
	MergeActionUpdate = "update"
	MergeActionCreate = "create"
	MergeActionKeep   = "keep"
	MergeActionDelete = "delete"
)

// ImportRow is one parsed row of a CSV or spreadsheet schedule.
type ImportRow struct {
	Line         int
	Title        string
	Day          string
	StartTime    string
	EndTime      string
	Description  string
	Location     string
	TeacherNames []string
	Capacity     *int
	DisplayOrder *float64
}

// RowWarning reports a non-fatal problem with one import row. Line is 1-based and counts the header.
type RowWarning struct {
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionMatch pairs an existing session with the incoming data that will overwrite it.
type SessionMatch struct {
	Existing *Session
	Incoming *Session
}

// MergePlan classifies current and incoming sessions of one festival.
// Every current session is in exactly one of ToUpdate (as Existing), ToKeep, ToDelete;
// every incoming session is in exactly one of ToUpdate (as Incoming), ToCreate.
type MergePlan struct {
	ToUpdate []SessionMatch
	ToCreate []*Session
	ToKeep   []*Session
	ToDelete []*Session
}

// MergeSample is one entry of a plan preview.
type MergeSample struct {
	Action    string `json:"action"`
	Title     string `json:"title"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
}

// MergeSummary is the count-based view of a MergePlan returned to callers.
type MergeSummary struct {
	ToUpdate int           `json:"to_update"`
	ToCreate int           `json:"to_create"`
	ToKeep   int           `json:"to_keep"`
	ToDelete int           `json:"to_delete"`
	Sample   []MergeSample `json:"sample"`
}

// ImportReport is the outcome of a preview or apply import.
type ImportReport struct {
	Mode        string       `json:"mode"`
	Summary     MergeSummary `json:"summary"`
	SkippedRows int          `json:"skipped_rows"`
	Warnings    []RowWarning `json:"warnings"`
	// Flagged lists sessions kept for manual review because they have bookings.
	Flagged []FlaggedSession `json:"flagged"`
}

// FlaggedSession identifies a kept session without exposing its attendees.
type FlaggedSession struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	BookedSeats int    `json:"booked_seats"`
}

// ImportSource is either a delimited text body or a spreadsheet reference.
type ImportSource struct {
	Body    io.Reader
	SheetID string
	GID     string
}

// SheetFetcher downloads a spreadsheet tab as CSV.
type SheetFetcher interface {
	FetchCSV(ctx context.Context, sheetID, gid string) ([]byte, error)
}

// ReviewNotifier tells organizers about sessions an import could not remove because of bookings.
type ReviewNotifier interface {
	NotifyFlaggedSessions(ctx context.Context, festival *Festival, flagged []*Session) error
}
