package editor

import (
	"regexp"
	"strings"

	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/parser"
)

// scheduleLookahead is how many lines after a candidate heading may carry
// the SCHEDULED marker that confirms it.
const scheduleLookahead = 4

// Locate finds the heading line of the task described by the snapshot t.
//
// A candidate must be a task heading with t's state whose text contains t's
// title. When t carries a scheduled date, the candidate is confirmed only if
// a SCHEDULED marker with that date follows within the lookahead window,
// without crossing another heading. Candidates whose parsed title, level and
// priority equal the snapshot's are preferred; the first confirmed substring
// match is used only when no exact one exists. Returns -1 when nothing
// matches.
func Locate(lines []string, t models.Task) int {
	var wantDay string
	if t.Scheduled != nil {
		wantDay = orgdate.Format(*t.Scheduled)
	}

	loose := -1
	for i, line := range lines {
		h, ok := parser.ParseHeading(line)
		if !ok || h.State != t.State {
			continue
		}
		if !strings.Contains(parser.TaskHeadingRe.FindStringSubmatch(line)[3], t.Title) {
			continue
		}
		if wantDay != "" && !scheduledNear(lines, i, wantDay) {
			continue
		}
		if exact(h, t) {
			return i
		}
		if loose < 0 {
			loose = i
		}
	}
	return loose
}

func exact(h parser.Heading, t models.Task) bool {
	if h.Title != t.Title || h.Priority != t.Priority {
		return false
	}
	return t.Level == 0 || h.Level == t.Level
}

// scheduledNear looks for the SCHEDULED marker within the lookahead window
// after heading. Property drawer lines do not count toward the window, so a
// marker written after a drawer is still found.
func scheduledNear(lines []string, heading int, day string) bool {
	re := regexp.MustCompile(`SCHEDULED:\s*<` + regexp.QuoteMeta(day))
	inDrawer := false
	seen := 0
	for j := heading + 1; j < len(lines) && seen < scheduleLookahead; j++ {
		if parser.HeadingLevel(lines[j]) > 0 {
			return false
		}
		if re.MatchString(lines[j]) {
			return true
		}
		switch trimmed := strings.TrimSpace(lines[j]); {
		case trimmed == ":PROPERTIES:":
			inDrawer = true
		case inDrawer && trimmed == ":END:":
			inDrawer = false
		case !inDrawer:
			seen++
		}
	}
	return false
}

// spanEnd returns the index one past the last line belonging to the task
// whose heading is at heading: the next heading of equal or shallower depth,
// or the end of the document.
func spanEnd(lines []string, heading int) int {
	level := parser.HeadingLevel(lines[heading])
	end := heading + 1
	for end < len(lines) {
		if l := parser.HeadingLevel(lines[end]); l > 0 && l <= level {
			break
		}
		end++
	}
	// A trailing empty element is the document's final newline.
	if end == len(lines) && end-1 > heading && lines[end-1] == "" {
		end--
	}
	return end
}
