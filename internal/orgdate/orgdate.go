// Package orgdate converts between outline date markers and calendar days.
//
// A calendar day is a time.Time at local midnight. Comparisons between days
// are only meaningful after Midnight has been applied.
package orgdate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
)

const (
	// Layout is the day format used inside SCHEDULED/DEADLINE markers.
	Layout = "2006-01-02"
	// TimestampLayout is used for CLOSED markers and comment lines.
	TimestampLayout = "2006-01-02 15:04:05"
)

var (
	dayRe    = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	strictRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Midnight clears the time of day, keeping the local calendar day.
func Midnight(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Parse extracts the first YYYY-MM-DD in s, ignoring any weekday or time
// annotation around it. Noise and impossible dates yield ok=false.
func Parse(s string) (time.Time, bool) {
	m := dayRe.FindString(s)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout, m, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParsePtr is Parse returning nil for absence.
func ParsePtr(s string) *time.Time {
	t, ok := Parse(s)
	if !ok {
		return nil
	}
	return &t
}

// ParseStrict accepts exactly YYYY-MM-DD.
func ParseStrict(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !strictRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", apperr.ErrInvalidDateFormat, s)
	}
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDateFormat, s)
	}
	return t, nil
}

// Format renders a day as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.In(time.Local).Format(Layout)
}

// Timestamp renders an instant as YYYY-MM-DD HH:MM:SS in local time.
func Timestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return Midnight(a).Equal(Midnight(b))
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

const weekdayAlt = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`

var (
	todayPlusRe = regexp.MustCompile(`^today\s*\+\s*(\d+)$`)
	nextDayRe   = regexp.MustCompile(`^next\s+(` + weekdayAlt + `)$`)
	thisDayRe   = regexp.MustCompile(`^this\s+(` + weekdayAlt + `)$`)
	inDaysRe    = regexp.MustCompile(`^in\s+(\d+)\s+days?$`)
)

// Resolve turns a date expression into a calendar day relative to now.
// Accepted: today, tomorrow, today+N, next <weekday>, this <weekday>,
// in N days, YYYY-MM-DD.
func Resolve(expr string, now time.Time) (time.Time, error) {
	norm := strings.ToLower(strings.TrimSpace(expr))
	today := Midnight(now)

	switch {
	case strictRe.MatchString(norm):
		return ParseStrict(norm)
	case norm == "today":
		return today, nil
	case norm == "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if m := todayPlusRe.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDateFormat, expr)
		}
		return today.AddDate(0, 0, n), nil
	}
	if m := nextDayRe.FindStringSubmatch(norm); m != nil {
		diff := int(weekdays[m[1]] - today.Weekday())
		if diff <= 0 {
			diff += 7
		}
		return today.AddDate(0, 0, diff), nil
	}
	if m := thisDayRe.FindStringSubmatch(norm); m != nil {
		diff := int(weekdays[m[1]] - today.Weekday())
		if diff < 0 {
			diff += 7
		}
		return today.AddDate(0, 0, diff), nil
	}
	if m := inDaysRe.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDateFormat, expr)
		}
		return today.AddDate(0, 0, n), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDateFormat, expr)
}

// extractPatterns are tried in order; the first that resolves wins.
var extractPatterns = func() []*regexp.Regexp {
	bodies := []string{
		`(?i)%s(next\s+(?:` + weekdayAlt + `))`,
		`(?i)%s(this\s+(?:` + weekdayAlt + `))`,
		`(?i)%s(in\s+\d+\s+days?)`,
		`(?i)%s(today\s*\+\s*\d+)`,
		`(?i)%s(tomorrow)`,
		`(?i)%s(today)`,
		`%s(\d{4}-\d{2}-\d{2})`,
	}
	var out []*regexp.Regexp
	for _, sigil := range []string{"@", "#"} {
		for _, b := range bodies {
			out = append(out, regexp.MustCompile(fmt.Sprintf(b, sigil)))
		}
	}
	return out
}()

var spaceRun = regexp.MustCompile(`\s+`)

// Extract finds a @date or #date token in text, returning the text with the
// token removed and the resolved day. When nothing resolves, text is
// returned unchanged and day is nil.
func Extract(text string, now time.Time) (string, *time.Time) {
	for _, re := range extractPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		day, err := Resolve(strings.TrimSpace(m[1]), now)
		if err != nil {
			continue
		}
		clean := strings.TrimSpace(strings.Replace(text, m[0], "", 1))
		clean = spaceRun.ReplaceAllString(clean, " ")
		return clean, &day
	}
	return text, nil
}
