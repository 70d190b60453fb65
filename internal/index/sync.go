package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/orgtasks/internal/checksum"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/parser"
)

// Source is where Sync reads the document text from.
type Source interface {
	Read() (string, error)
}

// Sync brings the index up to date with the document. Nothing is
// rewritten when the document checksum matches the one last indexed.
// changed reports whether the index was rebuilt.
func Sync(db *DB, src Source, logger *slog.Logger) (changed bool, err error) {
	text, err := src.Read()
	if err != nil {
		return false, err
	}
	cs := checksum.Sum([]byte(text))

	stored, err := db.Checksum()
	if err != nil {
		return false, err
	}
	if stored == cs {
		return false, nil
	}

	rows := buildRows(text)
	if err := db.ReplaceTasks(rows, cs); err != nil {
		return false, err
	}
	logger.Debug("sync: indexed", slog.Int("tasks", len(rows)))
	return true, nil
}

// buildRows parses text into index rows. A row's body is every line after
// the heading up to the next heading of any depth.
func buildRows(text string) []TaskRow {
	lines := strings.Split(text, "\n")
	tasks := parser.Parse(text)
	rows := make([]TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = TaskRow{
			Ordinal:   i + 1,
			Line:      t.Line,
			Level:     t.Level,
			State:     string(t.State),
			Priority:  t.Priority,
			Title:     t.Title,
			Tags:      t.Tags,
			Scheduled: day(t.Scheduled),
			Deadline:  day(t.Deadline),
			Body:      body(lines, t),
		}
		if t.Closed != nil {
			rows[i].Closed = orgdate.Timestamp(*t.Closed)
		}
	}
	return rows
}

func body(lines []string, t models.Task) string {
	var b []string
	for i := t.Line + 1; i < len(lines); i++ {
		if parser.HeadingLevel(lines[i]) > 0 {
			break
		}
		if s := strings.TrimSpace(lines[i]); s != "" {
			b = append(b, s)
		}
	}
	return strings.Join(b, "\n")
}

func day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return orgdate.Format(*t)
}
