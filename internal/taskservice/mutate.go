package taskservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/editor"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/parser"
)

type editFunc func(lines []string, t models.Task) ([]string, error)

// mutate resolves display index n for key and applies fn to the document in
// one locked cycle. It returns the new lines and the heading line the task
// was found on.
func (s *Service) mutate(ctx context.Context, key string, n int, fn editFunc) (models.Task, []string, int, error) {
	snap, err := s.snapshots.Resolve(key, n)
	if err != nil {
		return models.Task{}, nil, 0, err
	}
	out, line, err := s.apply(ctx, snap, fn)
	return snap, out, line, err
}

func (s *Service) apply(ctx context.Context, snap models.Task, fn editFunc) ([]string, int, error) {
	var (
		out  []string
		line int
	)
	err := s.doc.Mutate(ctx, func(lines []string) ([]string, error) {
		line = editor.Locate(lines, snap)
		res, err := fn(lines, snap)
		if err != nil {
			return nil, err
		}
		out = res
		return res, nil
	})
	if err != nil {
		return nil, 0, err
	}
	s.reindex()
	return out, line, nil
}

// taskAt parses lines and returns the task whose heading sits on line.
func taskAt(lines []string, line int) (models.Task, bool) {
	for _, t := range parser.Parse(strings.Join(lines, "\n")) {
		if t.Line == line {
			return t, true
		}
	}
	return models.Task{}, false
}

// updated reports the task as it reads after an edit that kept its heading
// on the same line.
func (s *Service) updated(snap models.Task, out []string, line int) models.Task {
	t, ok := taskAt(out, line)
	if !ok {
		t = snap
	}
	s.publish("updated", t)
	return t
}

// Rename replaces the title of task n.
func (s *Service) Rename(ctx context.Context, key string, n int, title string) (models.Task, error) {
	snap, out, line, err := s.mutate(ctx, key, n, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.Rename(lines, t, title)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.updated(snap, out, line), nil
}

// ChangeState sets the state keyword of task n.
func (s *Service) ChangeState(ctx context.Context, key string, n int, state string) (models.Task, error) {
	st := models.NormalizeState(state)
	if !st.Valid() {
		return models.Task{}, fmt.Errorf("%w: %q", apperr.ErrInvalidState, state)
	}
	snap, out, line, err := s.mutate(ctx, key, n, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.ChangeState(lines, t, st)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.updated(snap, out, line), nil
}

// Reschedule sets the scheduled date of task n. expr is anything
// orgdate.Resolve accepts.
func (s *Service) Reschedule(ctx context.Context, key string, n int, expr string) (models.Task, error) {
	day, err := orgdate.Resolve(expr, s.now())
	if err != nil {
		return models.Task{}, err
	}
	snap, out, line, err := s.mutate(ctx, key, n, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.Reschedule(lines, t, day)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.updated(snap, out, line), nil
}

// Delete removes task n and everything under it. It returns the removed
// snapshot.
func (s *Service) Delete(ctx context.Context, key string, n int) (models.Task, error) {
	snap, _, _, err := s.mutate(ctx, key, n, s.editor.Delete)
	if err != nil {
		return models.Task{}, err
	}
	s.publish("deleted", snap)
	return snap, nil
}

// Comments lists the current comments of task n.
func (s *Service) Comments(ctx context.Context, key string, n int) ([]models.Comment, error) {
	d, err := s.Read(ctx, key, n)
	if err != nil {
		return nil, err
	}
	return d.Comments, nil
}

// AddComment appends a timestamped comment to task n and returns the
// task's comments afterwards.
func (s *Service) AddComment(ctx context.Context, key string, n int, text string) ([]models.Comment, error) {
	snap, err := s.snapshots.Resolve(key, n)
	if err != nil {
		return nil, err
	}
	return s.addComment(ctx, snap, text)
}

func (s *Service) addComment(ctx context.Context, snap models.Task, text string) ([]models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty comment", apperr.ErrInvalidComment)
	}
	out, _, err := s.apply(ctx, snap, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.AddComment(lines, t, text)
	})
	if err != nil {
		return nil, err
	}
	s.publish("updated", snap)
	return s.editor.Comments(out, snap)
}

// UpdateComment rewrites comment c of task n, keeping its timestamp.
func (s *Service) UpdateComment(ctx context.Context, key string, n, c int, text string) ([]models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty comment", apperr.ErrInvalidComment)
	}
	snap, out, _, err := s.mutate(ctx, key, n, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.UpdateComment(lines, t, c, text)
	})
	if err != nil {
		return nil, err
	}
	s.publish("updated", snap)
	return s.editor.Comments(out, snap)
}

// DeleteComment removes comment c of task n.
func (s *Service) DeleteComment(ctx context.Context, key string, n, c int) ([]models.Comment, error) {
	snap, out, _, err := s.mutate(ctx, key, n, func(lines []string, t models.Task) ([]string, error) {
		return s.editor.DeleteComment(lines, t, c)
	})
	if err != nil {
		return nil, err
	}
	s.publish("updated", snap)
	return s.editor.Comments(out, snap)
}
