// Package editor splices task edits into outline text.
//
// Every operation takes the current document lines and a task snapshot,
// re-locates the task, and returns new lines. Lines outside the edited
// region are returned untouched. Nothing here touches storage.
package editor

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/parser"
)

// rescheduleWindow bounds the scan for an existing SCHEDULED marker.
const rescheduleWindow = 10

var (
	renameRe = regexp.MustCompile(`^(\*+\s+)(` + parser.StateAlt + `)(\s+\[#[A-Z]\])?(?:\s+(.*?))?(\s+` + parser.TagCluster + `)?\s*$`)
	stateRe  = regexp.MustCompile(`^(\*+\s+)(` + parser.StateAlt + `)(.*)$`)

	scheduledMarkerRe = regexp.MustCompile(`SCHEDULED:\s*<[^>]*>`)
	closedMarkerRe    = regexp.MustCompile(`^(\s*)CLOSED:\s*\[[^\]]*\]`)
)

// Editor applies mutations. The clock stamps CLOSED markers and comments.
type Editor struct {
	now    func() time.Time
	logger *slog.Logger
}

// New creates an Editor. A nil clock means time.Now; a nil logger means slog.Default().
func New(now func() time.Time, logger *slog.Logger) *Editor {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{now: now, logger: logger}
}

func (e *Editor) locate(lines []string, t models.Task) (int, error) {
	idx := Locate(lines, t)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s %q", apperr.ErrTaskNotFound, t.State, t.Title)
	}
	return idx, nil
}

// Rename replaces the title, keeping markers, state, priority and tags.
// Whitespace runs in title, newlines included, collapse to single spaces.
func (e *Editor) Rename(lines []string, t models.Task, title string) ([]string, error) {
	title = flatten(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", apperr.ErrInvalidTitle)
	}
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}

	out := clone(lines)
	old := lines[idx]
	if m := renameRe.FindStringSubmatch(old); m != nil {
		out[idx] = m[1] + m[2] + m[3] + " " + title + m[5]
		return out, nil
	}

	// renameRe accepts every line TaskHeadingRe does, so this only runs if
	// the two patterns drift apart.
	e.logger.Warn("rename: heading did not re-parse, using substring replace",
		slog.Int("line", idx), slog.String("title", t.Title))
	out[idx] = strings.Replace(old, t.Title, title, 1)
	return out, nil
}

// ChangeState swaps the state keyword. Entering DONE also writes a CLOSED
// marker: prepended onto an immediately following SCHEDULED/DEADLINE line,
// otherwise on a new line after the heading.
func (e *Editor) ChangeState(lines []string, t models.Task, state models.State) ([]string, error) {
	state = models.NormalizeState(string(state))
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidState, state)
	}
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}

	out := clone(lines)
	m := stateRe.FindStringSubmatch(lines[idx])
	if m == nil {
		return nil, fmt.Errorf("%w: heading at line %d", apperr.ErrTaskNotFound, idx)
	}
	out[idx] = m[1] + string(state) + m[3]

	if state != models.StateDone {
		return out, nil
	}

	closed := parser.ClosedMarker(e.now())
	next := idx + 1
	if next < len(out) {
		line := out[next]
		if cm := closedMarkerRe.FindStringSubmatch(line); cm != nil {
			out[next] = cm[1] + closed + line[len(cm[0]):]
			return out, nil
		}
		if strings.Contains(line, "SCHEDULED:") || strings.Contains(line, "DEADLINE:") {
			out[next] = closed + " " + line
			return out, nil
		}
	}
	return insert(out, next, closed), nil
}

// Reschedule sets the SCHEDULED date. An existing marker near the heading
// is rewritten in place; otherwise a marker line is inserted after the
// heading and any CLOSED/DEADLINE/drawer-end lines that follow it.
func (e *Editor) Reschedule(lines []string, t models.Task, day time.Time) ([]string, error) {
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}

	marker := parser.ScheduledMarker(day)
	insertAt := idx + 1
	for i := idx + 1; i < len(lines) && i < idx+rescheduleWindow; i++ {
		line := strings.TrimSpace(lines[i])

		if scheduledMarkerRe.MatchString(line) && isPlanning(line) {
			out := clone(lines)
			out[i] = scheduledMarkerRe.ReplaceAllLiteralString(lines[i], marker)
			return out, nil
		}
		if strings.HasPrefix(line, "*") || (strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "- [")) {
			break
		}
		if strings.HasPrefix(line, "CLOSED:") || strings.HasPrefix(line, "DEADLINE:") || line == ":END:" {
			insertAt = i + 1
		}
	}
	return insert(clone(lines), insertAt, marker), nil
}

// Delete removes the task's whole span: heading, metadata, body and any
// deeper subheadings.
func (e *Editor) Delete(lines []string, t models.Task) ([]string, error) {
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}
	end := spanEnd(lines, idx)
	out := make([]string, 0, len(lines)-(end-idx))
	out = append(out, lines[:idx]...)
	return append(out, lines[end:]...), nil
}

// isPlanning reports whether a trimmed line is a planning line, i.e. it
// starts with one of the planning keywords.
func isPlanning(line string) bool {
	return strings.HasPrefix(line, "SCHEDULED:") ||
		strings.HasPrefix(line, "DEADLINE:") ||
		strings.HasPrefix(line, "CLOSED:")
}

func clone(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func insert(lines []string, at int, line string) []string {
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line
	return lines
}
