// Package apperr defines the error kinds returned by the task engine.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound           = errors.New("task not found in document")
	ErrSnapshotNotFound       = errors.New("no listed task at that index")
	ErrCommentIndexOutOfRange = errors.New("comment index out of range")
	ErrInvalidState           = errors.New("invalid state")
	ErrInvalidDateFormat      = errors.New("invalid date format")
	ErrInvalidTitle           = errors.New("invalid title")
	ErrDocumentUnreadable     = errors.New("document unreadable")
	ErrDocumentUnwritable     = errors.New("document unwritable")
	ErrConflict               = errors.New("conflict")
	ErrNoCommentSession       = errors.New("no active comment session")
	ErrInvalidComment         = errors.New("invalid comment")
	ErrSearchUnavailable      = errors.New("search index not configured")
)

// CommentRangeError reports a comment ordinal outside [1, Count].
type CommentRangeError struct {
	Index int
	Count int
}

func (e *CommentRangeError) Error() string {
	return fmt.Sprintf("comment %d not found (task has %d comments)", e.Index, e.Count)
}

func (e *CommentRangeError) Unwrap() error { return ErrCommentIndexOutOfRange }
