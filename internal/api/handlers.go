package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/orgtasks/internal/checksum"
	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/query"
	"github.com/starford/orgtasks/internal/taskservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *taskservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service) *Handler {
	return &Handler{svc: svc}
}

// intParam parses a positive integer path parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid "+name))
		return 0, false
	}
	return n, true
}

// Status handles GET /api/status.
//
//	@Summary		Report document and task counts
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	_, sum, err := h.svc.Document(r.Context())
	if err != nil {
		writeError(w, "status", err)
		return
	}
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Document: h.svc.DocumentName(),
		Checksum: sum,
		Tasks:    stats.Total,
	})
}

// ListTasks handles GET /api/tasks.
//
//	@Summary		List tasks for a view and assign display indexes
//	@Tags			tasks
//	@Produce		json
//	@Param			view	query		string	false	"View"	Enums(today, tomorrow, week, overdue, all, date)
//	@Param			date	query		string	false	"Date for the date view (YYYY-MM-DD)"
//	@Param			limit	query		int		false	"Result cap for the all view"
//	@Success		200		{object}	ListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := q.Get("view")
	if err := validView(view); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("view: "+err.Error()))
		return
	}
	req := query.Request{View: query.View(view)}
	if raw := q.Get("date"); raw != "" {
		d, err := orgdate.ParseStrict(raw)
		if err != nil {
			writeError(w, "list", err)
			return
		}
		req.Date = d
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
		req.Limit = limit
	}

	res, err := h.svc.List(r.Context(), sessionKey(r), req)
	if err != nil {
		writeError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stats handles GET /api/stats.
//
//	@Summary		Count tasks by state, due today and overdue
//	@Tags			tasks
//	@Produce		json
//	@Success		200	{object}	query.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CreateTask handles POST /api/tasks.
//
//	@Summary		Append a task to the document
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTaskRequest	true	"Task text"
//	@Success		201		{object}	Task
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [post]
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), req.Text)
	if err != nil {
		writeError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTask handles GET /api/tasks/{n}.
//
//	@Summary		Read a listed task and its comments
//	@Tags			tasks
//	@Produce		json
//	@Param			n	path		int	true	"Display index from the last listing"
//	@Success		200	{object}	TaskDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n} [get]
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	detail, err := h.svc.Read(r.Context(), sessionKey(r), n)
	if err != nil {
		writeError(w, "read", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// RenameTask handles PATCH /api/tasks/{n}/title.
//
//	@Summary		Rename a listed task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			n		path		int				true	"Display index"
//	@Param			body	body		RenameRequest	true	"New title"
//	@Success		200		{object}	Task
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/title [patch]
func (h *Handler) RenameTask(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	var req RenameRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Rename(r.Context(), sessionKey(r), n, req.Title)
	if err != nil {
		writeError(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetState handles PATCH /api/tasks/{n}/state.
//
//	@Summary		Change a listed task's state
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			n		path		int				true	"Display index"
//	@Param			body	body		StateRequest	true	"New state"
//	@Success		200		{object}	Task
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/state [patch]
func (h *Handler) SetState(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	var req StateRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.ChangeState(r.Context(), sessionKey(r), n, req.State)
	if err != nil {
		writeError(w, "state", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Reschedule handles PATCH /api/tasks/{n}/schedule.
//
//	@Summary		Set a listed task's scheduled date
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			n		path		int				true	"Display index"
//	@Param			body	body		ScheduleRequest	true	"Date or date expression"
//	@Success		200		{object}	Task
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/schedule [patch]
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	var req ScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Reschedule(r.Context(), sessionKey(r), n, req.Date)
	if err != nil {
		writeError(w, "reschedule", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask handles DELETE /api/tasks/{n}.
//
//	@Summary		Delete a listed task and its body
//	@Tags			tasks
//	@Param			n	path	int	true	"Display index"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n} [delete]
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	if _, err := h.svc.Delete(r.Context(), sessionKey(r), n); err != nil {
		writeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListComments handles GET /api/tasks/{n}/comments.
//
//	@Summary		List a task's comments
//	@Tags			comments
//	@Produce		json
//	@Param			n	path		int	true	"Display index"
//	@Success		200	{object}	CommentsResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/comments [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	comments, err := h.svc.Comments(r.Context(), sessionKey(r), n)
	if err != nil {
		writeError(w, "comments", err)
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Comments: comments})
}

// AddComment handles POST /api/tasks/{n}/comments.
//
//	@Summary		Add a timestamped comment to a task
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			n		path		int				true	"Display index"
//	@Param			body	body		CommentRequest	true	"Comment text"
//	@Success		201		{object}	CommentsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/comments [post]
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	comments, err := h.svc.AddComment(r.Context(), sessionKey(r), n, req.Text)
	if err != nil {
		writeError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentsResponse{Comments: comments})
}

// UpdateComment handles PUT /api/tasks/{n}/comments/{c}.
//
//	@Summary		Replace a comment's text, keeping its timestamp
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			n		path		int				true	"Display index"
//	@Param			c		path		int				true	"Comment ordinal"
//	@Param			body	body		CommentRequest	true	"Comment text"
//	@Success		200		{object}	CommentsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/comments/{c} [put]
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	c, ok := intParam(w, r, "c")
	if !ok {
		return
	}
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	comments, err := h.svc.UpdateComment(r.Context(), sessionKey(r), n, c, req.Text)
	if err != nil {
		writeError(w, "update comment", err)
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Comments: comments})
}

// DeleteComment handles DELETE /api/tasks/{n}/comments/{c}.
//
//	@Summary		Delete a comment
//	@Tags			comments
//	@Produce		json
//	@Param			n	path		int	true	"Display index"
//	@Param			c	path		int	true	"Comment ordinal"
//	@Success		200	{object}	CommentsResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/comments/{c} [delete]
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	c, ok := intParam(w, r, "c")
	if !ok {
		return
	}
	comments, err := h.svc.DeleteComment(r.Context(), sessionKey(r), n, c)
	if err != nil {
		writeError(w, "delete comment", err)
		return
	}
	writeJSON(w, http.StatusOK, CommentsResponse{Comments: comments})
}

// StartCommentSession handles POST /api/tasks/{n}/comment-session.
//
//	@Summary		Bind follow-up comments to a listed task
//	@Tags			comments
//	@Produce		json
//	@Param			n	path		int	true	"Display index"
//	@Success		200	{object}	Session
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/{n}/comment-session [post]
func (h *Handler) StartCommentSession(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n")
	if !ok {
		return
	}
	sess, err := h.svc.StartCommentSession(r.Context(), sessionKey(r), n)
	if err != nil {
		writeError(w, "comment session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// GetCommentSession handles GET /api/comment-session.
//
//	@Summary		Show the active comment session
//	@Tags			comments
//	@Produce		json
//	@Success		200	{object}	Session
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comment-session [get]
func (h *Handler) GetCommentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CommentSession(sessionKey(r))
	if err != nil {
		writeError(w, "comment session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// AppendSessionComment handles POST /api/comment-session/comments.
//
//	@Summary		Add a comment to the session's task
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CommentRequest	true	"Comment text"
//	@Success		201		{object}	CommentsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/comment-session/comments [post]
func (h *Handler) AppendSessionComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	comments, err := h.svc.AppendSessionComment(r.Context(), sessionKey(r), req.Text)
	if err != nil {
		writeError(w, "session comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentsResponse{Comments: comments})
}

// EndCommentSession handles DELETE /api/comment-session.
//
//	@Summary		End the comment session
//	@Tags			comments
//	@Success		204
//	@Security		BearerAuth
//	@Router			/comment-session [delete]
func (h *Handler) EndCommentSession(w http.ResponseWriter, r *http.Request) {
	h.svc.EndCommentSession(sessionKey(r))
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/tasks/search.
//
//	@Summary		Full-text search over task titles and bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetDocument handles GET /api/document.
//
//	@Summary		Fetch the raw org document
//	@Tags			document
//	@Produce		plain
//	@Success		200	{string}	string	"Document text, ETag carries the checksum"
//	@Security		BearerAuth
//	@Router			/document [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	text, sum, err := h.svc.Document(r.Context())
	if err != nil {
		writeError(w, "document", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("ETag", checksum.ETag(sum))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// PutDocument handles PUT /api/document.
//
//	@Summary		Replace the raw org document
//	@Description	When If-Match is set the write only happens if it matches the current checksum.
//	@Tags			document
//	@Accept			plain
//	@Param			If-Match	header	string	false	"Expected ETag"
//	@Success		204
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/document [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("document too large"))
		return
	}
	sum, err := h.svc.ReplaceDocument(r.Context(), string(body), checksum.FromETag(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "replace document", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sum))
	w.WriteHeader(http.StatusNoContent)
}

