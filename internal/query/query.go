// Package query filters parsed task snapshots. Nothing here reads the
// document; every function is pure over its inputs.
package query

import (
	"time"

	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
)

// ByExactDate returns tasks whose agenda date falls on day.
func ByExactDate(tasks []models.Task, day time.Time) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		d := t.Date()
		return d != nil && orgdate.SameDay(*d, day)
	})
}

// ByDateRange returns tasks whose agenda date lies in [start, end], both
// days inclusive.
func ByDateRange(tasks []models.Task, start, end time.Time) []models.Task {
	from := orgdate.Midnight(start)
	to := orgdate.Midnight(end)
	return filter(tasks, func(t models.Task) bool {
		d := t.Date()
		if d == nil {
			return false
		}
		day := orgdate.Midnight(*d)
		return !day.Before(from) && !day.After(to)
	})
}

// Overdue returns open tasks whose agenda date is strictly before today.
func Overdue(tasks []models.Task, today time.Time) []models.Task {
	cutoff := orgdate.Midnight(today)
	return filter(tasks, func(t models.Task) bool {
		d := t.Date()
		return t.State.Open() && d != nil && orgdate.Midnight(*d).Before(cutoff)
	})
}

// Open returns the tasks still to do.
func Open(tasks []models.Task) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.State.Open() })
}

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
