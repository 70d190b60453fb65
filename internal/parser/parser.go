// Package parser turns outline text into task snapshots and renders
// task headings back into outline text.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
)

// StateAlt is the alternation of recognized state keywords.
const StateAlt = `TODO|DONE|HOLD|STARTED|CANCELED|SOMEDAY|CHECK`

// TagCluster matches a :tag1:tag2: suffix body.
const TagCluster = `:[\w@#%:]+:`

var (
	// Exported so the editor matches headings exactly as the parser does.
	TaskHeadingRe = regexp.MustCompile(`^(\*+)\s+(` + StateAlt + `)(?:\s+(.*))?$`)
	HeadingRe     = regexp.MustCompile(`^(\*+)\s`)
	ScheduledRe   = regexp.MustCompile(`SCHEDULED:\s*<([^>]+)>`)
	DeadlineRe    = regexp.MustCompile(`DEADLINE:\s*<([^>]+)>`)
	ClosedRe      = regexp.MustCompile(`CLOSED:\s*\[([^\]]+)\]`)
	CommentRe     = regexp.MustCompile(`^-\s+\[([^\]]+)\]\s+(.+)$`)

	priorityRe = regexp.MustCompile(`^\[#([A-Z])\](?:\s+(.*))?$`)
	tagsRe     = regexp.MustCompile(`^(.*?)\s+(` + TagCluster + `)\s*$`)
	topLevelRe = regexp.MustCompile(`^\*\s`)
)

// Heading is a task heading line split into its parts.
type Heading struct {
	Level    int
	State    models.State
	Priority string
	Title    string
	Tags     []string
}

// ParseHeading splits a task heading line. ok is false when the line is not
// a heading with a recognized state keyword.
func ParseHeading(line string) (Heading, bool) {
	m := TaskHeadingRe.FindStringSubmatch(line)
	if m == nil {
		return Heading{}, false
	}
	h := Heading{
		Level: len(m[1]),
		State: models.State(m[2]),
		Tags:  []string{},
	}
	rest := m[3]
	if pm := priorityRe.FindStringSubmatch(rest); pm != nil {
		h.Priority = pm[1]
		rest = pm[2]
	}
	h.Title = strings.TrimSpace(rest)
	if tm := tagsRe.FindStringSubmatch(rest); tm != nil {
		h.Title = strings.TrimSpace(tm[1])
		h.Tags = splitTags(tm[2])
	}
	return h, true
}

// HeadingLevel returns the depth of any outline heading, or 0 for non-headings.
func HeadingLevel(line string) int {
	m := HeadingRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

func splitTags(cluster string) []string {
	var out []string
	for _, t := range strings.Split(cluster, ":") {
		if t != "" {
			out = append(out, t)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// Parse converts document text into ordered task snapshots.
//
// A task heading opens a task and closes the previous one. Planning markers
// on following lines fill the open task, last occurrence winning. A plain
// top-level heading closes the open task without opening another.
func Parse(text string) []models.Task {
	lines := strings.Split(text, "\n")

	var (
		tasks []models.Task
		cur   *models.Task
	)
	flush := func() {
		if cur != nil {
			tasks = append(tasks, *cur)
			cur = nil
		}
	}

	for i, line := range lines {
		if h, ok := ParseHeading(line); ok {
			flush()
			cur = &models.Task{
				Level:    h.Level,
				State:    h.State,
				Priority: h.Priority,
				Title:    h.Title,
				Tags:     h.Tags,
				Line:     i,
			}
			continue
		}
		if cur == nil {
			continue
		}
		if m := ScheduledRe.FindStringSubmatch(line); m != nil {
			cur.Scheduled = orgdate.ParsePtr(m[1])
		}
		if m := DeadlineRe.FindStringSubmatch(line); m != nil {
			cur.Deadline = orgdate.ParsePtr(m[1])
		}
		if m := ClosedRe.FindStringSubmatch(line); m != nil {
			cur.Closed = orgdate.ParsePtr(m[1])
		}
		if topLevelRe.MatchString(line) {
			flush()
		}
	}
	flush()

	return tasks
}
