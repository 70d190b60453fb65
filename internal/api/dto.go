package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/index"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/query"
	"github.com/starford/orgtasks/internal/taskservice"
)

// CreateTaskRequest is the request body for creating a task. Text may use
// the "!" priority prefix and an @date token.
type CreateTaskRequest struct {
	Text string `json:"text" example:"!Call the plumber @tomorrow" validate:"required"`
}

// Validate validates the request.
func (r *CreateTaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 1000)),
	)
}

// RenameRequest is the request body for renaming a task.
type RenameRequest struct {
	Title string `json:"title" example:"Buy oat milk" validate:"required"`
}

// Validate validates the request.
func (r *RenameRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 1000)),
	)
}

// StateRequest is the request body for changing a task's state.
type StateRequest struct {
	State string `json:"state" example:"DONE" validate:"required"`
}

// Validate validates the request.
func (r *StateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.State, validation.Required),
	)
}

// ScheduleRequest is the request body for rescheduling a task. Date is a
// YYYY-MM-DD date or an expression like "tomorrow" or "next monday".
type ScheduleRequest struct {
	Date string `json:"date" example:"2026-03-01" validate:"required"`
}

// Validate validates the request.
func (r *ScheduleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Date, validation.Required),
	)
}

// CommentRequest is the request body for adding or updating a comment.
type CommentRequest struct {
	Text string `json:"text" example:"Called, no answer" validate:"required"`
}

// Validate validates the request.
func (r *CommentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 4000)),
	)
}

func validView(value interface{}) error {
	v, _ := value.(string)
	if v == "" {
		return nil
	}
	for _, known := range query.Views {
		if query.View(v) == known {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", query.Views)
}

// Task is a task snapshot (aliased from the domain layer).
type Task = models.Task

// Comment is a task comment (aliased from the domain layer).
type Comment = models.Comment

// ListResponse is a listing with display indexes (aliased from the domain layer).
type ListResponse = taskservice.ListResult

// TaskDetail is a task plus its comments (aliased from the domain layer).
type TaskDetail = taskservice.TaskDetail

// Session is a comment-mode binding (aliased from the cache layer).
type Session = cache.Session

// CommentsResponse wraps a task's comments.
type CommentsResponse struct {
	Comments []Comment `json:"comments" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// StatusResponse reports readiness.
type StatusResponse struct {
	Document string `json:"document" example:"tasks.org" validate:"required"`
	Checksum string `json:"checksum" validate:"required"`
	Tasks    int    `json:"tasks" example:"42" validate:"required"`
}
