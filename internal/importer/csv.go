// Package importer reads festival schedules from delimited text exports.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
	"festivalscheduling/internal/schedule"
)

// Positional layout of legacy exports that carry no usable header.
const (
	legacyDayCol     = 1
	legacyStartCol   = 2
	legacyEndCol     = 3
	legacyTitleCol   = 4
	legacyMinColumns = 10
)

const (
	fieldTitle       = "title"
	fieldDay         = "day"
	fieldStart       = "start"
	fieldEnd         = "end"
	fieldDescription = "description"
	fieldLocation    = "location"
	fieldTeachers    = "teachers"
	fieldCapacity    = "capacity"
	fieldOrder       = "display_order"
)

var headerAliases = map[string]string{
	"title": fieldTitle, "session": fieldTitle, "name": fieldTitle,
	"day": fieldDay, "date": fieldDay,
	"start": fieldStart, "start_time": fieldStart, "starttime": fieldStart, "from": fieldStart,
	"end": fieldEnd, "end_time": fieldEnd, "endtime": fieldEnd, "to": fieldEnd,
	"description": fieldDescription,
	"location": fieldLocation, "room": fieldLocation, "venue": fieldLocation,
	"teachers": fieldTeachers, "teacher": fieldTeachers, "speakers": fieldTeachers, "speaker": fieldTeachers,
	"capacity":      fieldCapacity,
	"display_order": fieldOrder, "order": fieldOrder,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseOptions tunes parsing.
type ParseOptions struct {
	// Anchor resolves weekday names to dates. Usually the festival start date.
	Anchor *time.Time
}

// ParseResult holds the usable rows and everything that was wrong with the rest.
type ParseResult struct {
	Rows        []domain.ImportRow
	SkippedRows int
	Warnings    []domain.RowWarning
}

func (r *ParseResult) warn(line int, kind, msg string) {
	r.Warnings = append(r.Warnings, domain.RowWarning{Line: line, Kind: kind, Message: msg})
}

// ParseCSV reads a schedule export. Rows missing a title, day, start or end
// are skipped and reported. Stray quotes inside unquoted fields are kept as
// text. Days and times are canonicalized; values that cannot be are kept as
// written and reported. Only an unreadable stream or header returns an error.
func ParseCSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	result := &ParseResult{Rows: []domain.ImportRow{}, Warnings: []domain.RowWarning{}}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", domain.ErrInvalidInput, err)
	}
	columns := mapHeader(header)
	_, hasTitle := columns[fieldTitle]
	_, hasDay := columns[fieldDay]
	legacy := !hasTitle && !hasDay

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		var row domain.ImportRow
		if legacy {
			if len(record) < legacyMinColumns {
				result.SkippedRows++
				result.warn(line, domain.WarningMalformedRow,
					fmt.Sprintf("expected at least %d columns, got %d", legacyMinColumns, len(record)))
				continue
			}
			row = domain.ImportRow{
				Day:       clean(record[legacyDayCol]),
				StartTime: clean(record[legacyStartCol]),
				EndTime:   clean(record[legacyEndCol]),
				Title:     clean(record[legacyTitleCol]),
			}
		} else {
			row = mappedRow(record, columns, line, result)
		}
		row.Line = line

		if missing := missingFields(row); len(missing) > 0 {
			result.SkippedRows++
			result.warn(line, domain.WarningMalformedRow, "missing "+strings.Join(missing, ", "))
			continue
		}

		canonicalizeRow(&row, opts.Anchor, result)
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// detectDelimiter picks ';' when the header line uses it, ',' otherwise.
func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.IndexByte(header, ';') >= 0 {
		return ';'
	}
	return ','
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(clean(name))
		key = strings.ReplaceAll(key, " ", "_")
		field, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}
	return columns
}

func mappedRow(record []string, columns map[string]int, line int, result *ParseResult) domain.ImportRow {
	get := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(record) {
			return ""
		}
		return clean(record[i])
	}

	row := domain.ImportRow{
		Title:        get(fieldTitle),
		Day:          get(fieldDay),
		StartTime:    get(fieldStart),
		EndTime:      get(fieldEnd),
		Description:  get(fieldDescription),
		Location:     get(fieldLocation),
		TeacherNames: splitTeachers(get(fieldTeachers)),
	}
	if v := get(fieldCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			result.warn(line, domain.WarningInvalidField, fmt.Sprintf("capacity %q ignored", v))
		} else {
			row.Capacity = &n
		}
	}
	if v := get(fieldOrder); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result.warn(line, domain.WarningInvalidField, fmt.Sprintf("display order %q ignored", v))
		} else {
			row.DisplayOrder = &f
		}
	}
	return row
}

func canonicalizeRow(row *domain.ImportRow, anchor *time.Time, result *ParseResult) {
	if day, err := schedule.CanonicalDay(row.Day, anchor); err != nil {
		result.warn(row.Line, domain.WarningAmbiguousDateKey, err.Error())
	} else {
		row.Day = day
	}
	if start, err := schedule.CanonicalTime(row.StartTime); err != nil {
		result.warn(row.Line, domain.WarningAmbiguousDateKey, err.Error())
	} else {
		row.StartTime = start
	}
	if end, err := schedule.CanonicalTime(row.EndTime); err != nil {
		result.warn(row.Line, domain.WarningAmbiguousDateKey, err.Error())
	} else {
		row.EndTime = end
	}
}

func missingFields(row domain.ImportRow) []string {
	var missing []string
	if row.Title == "" {
		missing = append(missing, fieldTitle)
	}
	if row.Day == "" {
		missing = append(missing, fieldDay)
	}
	if row.StartTime == "" {
		missing = append(missing, fieldStart)
	}
	if row.EndTime == "" {
		missing = append(missing, fieldEnd)
	}
	return missing
}

func splitTeachers(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '&' })
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = clean(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func isBlank(record []string) bool {
	for _, f := range record {
		if clean(f) != "" {
			return false
		}
	}
	return true
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
