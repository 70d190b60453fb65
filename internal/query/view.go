package query

import (
	"fmt"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
)

// View names a canned listing.
type View string

const (
	ViewToday    View = "today"
	ViewTomorrow View = "tomorrow"
	ViewWeek     View = "week"
	ViewOverdue  View = "overdue"
	ViewAll      View = "all"
	ViewDate     View = "date"
)

// Views lists every selectable view.
var Views = []View{ViewToday, ViewTomorrow, ViewWeek, ViewOverdue, ViewAll, ViewDate}

// weekSpan is how many days after today the week view reaches.
const weekSpan = 7

// Request selects a view. Date is only read for ViewDate; Limit only for
// ViewAll, where zero means no limit.
type Request struct {
	View  View
	Date  time.Time
	Limit int
}

// Result is a view's tasks plus the count before any limit was applied.
type Result struct {
	Tasks []models.Task
	Total int
}

// Select applies a view to the parsed tasks as of now.
func Select(tasks []models.Task, req Request, now time.Time) (Result, error) {
	today := orgdate.Midnight(now)
	var out []models.Task
	switch req.View {
	case ViewToday, "":
		out = ByExactDate(Open(tasks), today)
	case ViewTomorrow:
		out = ByExactDate(Open(tasks), today.AddDate(0, 0, 1))
	case ViewWeek:
		out = ByDateRange(Open(tasks), today, today.AddDate(0, 0, weekSpan))
	case ViewOverdue:
		out = Overdue(tasks, today)
	case ViewDate:
		if req.Date.IsZero() {
			return Result{}, fmt.Errorf("%w: date view needs a date", apperr.ErrInvalidDateFormat)
		}
		out = ByExactDate(tasks, req.Date)
	case ViewAll:
		open := Open(tasks)
		res := Result{Tasks: open, Total: len(open)}
		if req.Limit > 0 && len(open) > req.Limit {
			res.Tasks = open[:req.Limit]
		}
		return res, nil
	default:
		return Result{}, fmt.Errorf("unknown view %q", req.View)
	}
	return Result{Tasks: out, Total: len(out)}, nil
}

// Stats summarizes the document.
type Stats struct {
	Total   int                  `json:"total"`
	ByState map[models.State]int `json:"by_state"`
	Today   int                  `json:"today"`
	Overdue int                  `json:"overdue"`
}

// Summarize counts tasks per state plus the open tasks due today and overdue.
func Summarize(tasks []models.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks), ByState: make(map[models.State]int, len(models.States))}
	for _, st := range models.States {
		s.ByState[st] = 0
	}
	for _, t := range tasks {
		s.ByState[t.State]++
	}
	s.Today = len(ByExactDate(Open(tasks), now))
	s.Overdue = len(Overdue(tasks, now))
	return s
}
