package taskservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/parser"
)

// Entry is a new task ready to be rendered.
type Entry struct {
	Task    models.Task
	Created time.Time
}

// ParseEntry turns free text into an Entry. With special syntax enabled a
// leading "!" sets priority A and an @date or #date token sets the
// schedule; otherwise DefaultScheduledDays applies when set.
func (s *Service) ParseEntry(text string) (Entry, error) {
	now := s.now()
	content := strings.TrimSpace(text)
	t := models.Task{
		Level: s.settings.HeadingLevel,
		State: s.settings.DefaultState,
		Tags:  []string{},
	}

	if s.settings.ParseSpecialSyntax {
		if strings.HasPrefix(content, "!") {
			t.Priority = "A"
			content = strings.TrimSpace(content[1:])
		}
		var day *time.Time
		content, day = orgdate.Extract(content, now)
		t.Scheduled = day
	}
	if t.Scheduled == nil && s.settings.DefaultScheduledDays != nil {
		day := orgdate.Midnight(now).AddDate(0, 0, *s.settings.DefaultScheduledDays)
		t.Scheduled = &day
	}

	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return Entry{}, fmt.Errorf("%w: empty task text", apperr.ErrInvalidTitle)
	}
	t.Title = content
	return Entry{Task: t, Created: now}, nil
}

// Render emits the entry as appended to the document: a leading newline,
// the heading, an optional SCHEDULED line, an optional property drawer and
// a trailing newline.
func (s *Service) Render(e Entry) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(parser.RenderHeading(e.Task))
	if e.Task.Scheduled != nil {
		b.WriteString("\n" + parser.ScheduledMarker(*e.Task.Scheduled))
	}
	if s.settings.IncludeTimestamp {
		b.WriteString("\n:PROPERTIES:")
		b.WriteString("\n:CREATED: [" + orgdate.Timestamp(e.Created) + "]")
		if s.settings.Source != "" {
			b.WriteString("\n:SOURCE: " + s.settings.Source)
		}
		b.WriteString("\n:END:")
	}
	b.WriteString("\n")
	return b.String()
}

// Create appends a new task built from text and returns it as parsed back
// from the document.
func (s *Service) Create(ctx context.Context, text string) (models.Task, error) {
	e, err := s.ParseEntry(text)
	if err != nil {
		return models.Task{}, err
	}
	var created models.Task
	err = s.doc.MutateText(ctx, func(cur string) (string, error) {
		out := cur + s.Render(e)
		tasks := parser.Parse(out)
		if len(tasks) > 0 {
			created = tasks[len(tasks)-1]
		}
		return out, nil
	})
	if err != nil {
		return models.Task{}, err
	}
	s.reindex()
	s.publish("created", created)
	return created, nil
}
