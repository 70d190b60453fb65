package editor

import (
	"strings"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/parser"
)

// Comments lists the task's comment lines in document order. Ordinals are
// 1-based and stable until the document changes.
func (e *Editor) Comments(lines []string, t models.Task) ([]models.Comment, error) {
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}
	return commentsAt(lines, idx), nil
}

func commentsAt(lines []string, heading int) []models.Comment {
	end := spanEnd(lines, heading)
	comments := []models.Comment{}
	for i := heading + 1; i < end; i++ {
		m := parser.CommentRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		comments = append(comments, models.Comment{
			Index:     len(comments) + 1,
			Line:      i,
			Timestamp: m[1],
			Text:      m[2],
		})
	}
	return comments
}

// AddComment inserts a timestamped comment after the heading's planning and
// property lines, ahead of any existing comments.
func (e *Editor) AddComment(lines []string, t models.Task, text string) ([]string, error) {
	idx, err := e.locate(lines, t)
	if err != nil {
		return nil, err
	}
	at := idx + 1
	for at < len(lines) && isMetadata(strings.TrimSpace(lines[at])) {
		at++
	}
	line := parser.CommentLine(orgdate.Timestamp(e.now()), flatten(text))
	return insert(clone(lines), at, line), nil
}

// UpdateComment replaces the text of comment n, keeping its timestamp.
func (e *Editor) UpdateComment(lines []string, t models.Task, n int, text string) ([]string, error) {
	c, err := e.comment(lines, t, n)
	if err != nil {
		return nil, err
	}
	out := clone(lines)
	indent := lines[c.Line][:len(lines[c.Line])-len(strings.TrimLeft(lines[c.Line], " \t"))]
	out[c.Line] = indent + parser.CommentLine(c.Timestamp, flatten(text))
	return out, nil
}

// DeleteComment removes comment n.
func (e *Editor) DeleteComment(lines []string, t models.Task, n int) ([]string, error) {
	c, err := e.comment(lines, t, n)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(lines)-1)
	out = append(out, lines[:c.Line]...)
	return append(out, lines[c.Line+1:]...), nil
}

func (e *Editor) comment(lines []string, t models.Task, n int) (models.Comment, error) {
	comments, err := e.Comments(lines, t)
	if err != nil {
		return models.Comment{}, err
	}
	if n < 1 || n > len(comments) {
		return models.Comment{}, &apperr.CommentRangeError{Index: n, Count: len(comments)}
	}
	return comments[n-1], nil
}

// isMetadata reports whether a trimmed line belongs to the block directly
// under a heading: planning markers or drawer lines.
func isMetadata(line string) bool {
	return isPlanning(line) || strings.HasPrefix(line, ":")
}

// flatten keeps comment and title text on a single line.
func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
