package parser

import (
	"strings"
	"time"

	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
)

// RenderHeading emits the heading line for t.
func RenderHeading(t models.Task) string {
	var b strings.Builder
	level := t.Level
	if level < 1 {
		level = 1
	}
	b.WriteString(strings.Repeat("*", level))
	b.WriteByte(' ')
	b.WriteString(string(t.State))
	if t.Priority != "" {
		b.WriteString(" [#" + t.Priority + "]")
	}
	if t.Title != "" {
		b.WriteByte(' ')
		b.WriteString(t.Title)
	}
	if len(t.Tags) > 0 {
		b.WriteString(" :" + strings.Join(t.Tags, ":") + ":")
	}
	return b.String()
}

// ScheduledMarker renders a SCHEDULED marker for day.
func ScheduledMarker(day time.Time) string {
	return "SCHEDULED: <" + orgdate.Format(day) + ">"
}

// DeadlineMarker renders a DEADLINE marker for day.
func DeadlineMarker(day time.Time) string {
	return "DEADLINE: <" + orgdate.Format(day) + ">"
}

// ClosedMarker renders a CLOSED marker for the instant at.
func ClosedMarker(at time.Time) string {
	return "CLOSED: [" + orgdate.Timestamp(at) + "]"
}

// CommentLine renders a comment line.
func CommentLine(timestamp, text string) string {
	return "- [" + timestamp + "] " + text
}

// RenderTask emits the heading plus a single planning line when t carries
// any dates. CLOSED comes first, as the editor writes it.
func RenderTask(t models.Task) []string {
	lines := []string{RenderHeading(t)}
	var markers []string
	if t.Closed != nil {
		markers = append(markers, ClosedMarker(*t.Closed))
	}
	if t.Scheduled != nil {
		markers = append(markers, ScheduledMarker(*t.Scheduled))
	}
	if t.Deadline != nil {
		markers = append(markers, DeadlineMarker(*t.Deadline))
	}
	if len(markers) > 0 {
		lines = append(lines, strings.Join(markers, " "))
	}
	return lines
}
