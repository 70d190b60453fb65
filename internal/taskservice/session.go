package taskservice

import (
	"context"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/models"
)

// StartCommentSession binds key's comment mode to task n, so later free
// text can be added with AppendSessionComment.
func (s *Service) StartCommentSession(_ context.Context, key string, n int) (cache.Session, error) {
	snap, err := s.snapshots.Resolve(key, n)
	if err != nil {
		return cache.Session{}, err
	}
	return s.sessions.Start(key, snap), nil
}

// CommentSession returns key's active session.
func (s *Service) CommentSession(key string) (cache.Session, error) {
	sess, ok := s.sessions.Get(key)
	if !ok {
		return cache.Session{}, apperr.ErrNoCommentSession
	}
	return sess, nil
}

// AppendSessionComment adds text as a comment on the task bound to key.
func (s *Service) AppendSessionComment(ctx context.Context, key, text string) ([]models.Comment, error) {
	sess, err := s.CommentSession(key)
	if err != nil {
		return nil, err
	}
	return s.addComment(ctx, sess.Task, text)
}

// EndCommentSession leaves comment mode.
func (s *Service) EndCommentSession(key string) {
	s.sessions.End(key)
}
