package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"festivalscheduling/internal/domain"
)

const isoDateLayout = "2006-01-02"

var (
	bareTimeRegex    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	isoDateTimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// DateTimeKey builds the string that orders a session chronologically among
// the sessions of one festival.
//
// A startTime that already carries a date ("2025-11-14T09:00:00") is the key.
// Otherwise day and startTime are joined as "{day}T{startTime}:00". With either
// part missing the key is day, possibly empty.
//
// The key only orders correctly when every session uses the same day
// representation: "Friday" sorts after "2025-11-14". Write paths run
// CanonicalDay so stored sessions share ISO dates.
func DateTimeKey(day, startTime string) string {
	if strings.Contains(startTime, "T") {
		return startTime
	}
	if day != "" && startTime != "" {
		return day + "T" + startTime + ":00"
	}
	return day
}

// SessionKey is DateTimeKey applied to a session.
func SessionKey(s *domain.Session) string {
	return DateTimeKey(s.Day, s.StartTime)
}

// CanonicalDay turns a day value into an ISO date.
//
// ISO dates pass through. A weekday name resolves to the first matching date
// on or after anchor (the festival's start date). Without an anchor, or for
// anything unrecognised, the input comes back unchanged together with an error
// wrapping domain.ErrAmbiguousDateKey.
func CanonicalDay(day string, anchor *time.Time) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return "", nil
	}
	if _, err := time.Parse(isoDateLayout, day); err == nil {
		return day, nil
	}
	wd, ok := weekdays[strings.ToLower(day)]
	if !ok {
		return day, fmt.Errorf("%w: unrecognised day %q", domain.ErrAmbiguousDateKey, day)
	}
	if anchor == nil {
		return day, fmt.Errorf("%w: weekday %q needs a festival start date", domain.ErrAmbiguousDateKey, day)
	}
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset).Format(isoDateLayout), nil
}

// CanonicalTime zero-pads bare times to HH:MM and drops seconds. Full ISO
// datetimes pass through. Unparseable values come back unchanged with an error
// wrapping domain.ErrAmbiguousDateKey.
func CanonicalTime(t string) (string, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", nil
	}
	if isoDateTimeRegex.MatchString(t) {
		return t, nil
	}
	m := bareTimeRegex.FindStringSubmatch(t)
	if m == nil {
		return t, fmt.Errorf("%w: unrecognised time %q", domain.ErrAmbiguousDateKey, t)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return t, fmt.Errorf("%w: time out of range %q", domain.ErrAmbiguousDateKey, t)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// CanonicalizeSession rewrites the session's day and times in place and returns
// every ambiguity found. The session is always left usable.
func CanonicalizeSession(s *domain.Session, anchor *time.Time) []error {
	var errs []error
	if day, err := CanonicalDay(s.Day, anchor); err != nil {
		errs = append(errs, err)
	} else {
		s.Day = day
	}
	if start, err := CanonicalTime(s.StartTime); err != nil {
		errs = append(errs, err)
	} else {
		s.StartTime = start
	}
	if end, err := CanonicalTime(s.EndTime); err != nil {
		errs = append(errs, err)
	} else {
		s.EndTime = end
	}
	return errs
}
