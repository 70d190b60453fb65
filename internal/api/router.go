package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/orgtasks/internal/taskservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *taskservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/status", h.Status)
	r.Get("/stats", h.Stats)

	// Tasks, addressed by display index from the caller's last listing.
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks/search", h.Search)
	r.Route("/tasks/{n}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.Delete("/", h.DeleteTask)
		r.Patch("/title", h.RenameTask)
		r.Patch("/state", h.SetState)
		r.Patch("/schedule", h.Reschedule)

		r.Get("/comments", h.ListComments)
		r.Post("/comments", h.AddComment)
		r.Put("/comments/{c}", h.UpdateComment)
		r.Delete("/comments/{c}", h.DeleteComment)

		r.Post("/comment-session", h.StartCommentSession)
	})

	r.Get("/comment-session", h.GetCommentSession)
	r.Post("/comment-session/comments", h.AppendSessionComment)
	r.Delete("/comment-session", h.EndCommentSession)

	r.Get("/document", h.GetDocument)
	r.Put("/document", h.PutDocument)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
