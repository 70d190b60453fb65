// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes task tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/orgtasks/internal/orgdate"
	"github.com/starford/orgtasks/internal/query"
	"github.com/starford/orgtasks/internal/taskservice"
)

// DefaultSession is the snapshot key used when a tool call names none.
const DefaultSession = "mcp"

// Server wraps the MCP server with task tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

func withSession() mcp.ToolOption {
	return mcp.WithString("session", mcp.Description("Session key scoping display indexes (default \"mcp\")"))
}

func withIndex() mcp.ToolOption {
	return mcp.WithNumber("n", mcp.Required(), mcp.Description("Display index from the last list_tasks call"))
}

// New creates a new MCP server with all task tools registered.
func New(svc *taskservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"orgtasks",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks for a view and assign display indexes used by the other tools."),
		mcp.WithString("view", mcp.Description("today (default), tomorrow, week, overdue, all or date")),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD, required for the date view")),
		withSession(),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("read_task",
		mcp.WithDescription("Read a listed task and its comments."),
		withIndex(),
		withSession(),
	), s.readTask)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Full-text search through task titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Append a task. Read "+FormatURI+" for the ! priority prefix and @date tokens."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("rename_task",
		mcp.WithDescription("Replace a listed task's title, keeping state, priority and tags."),
		withIndex(),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		withSession(),
	), s.renameTask)

	s.mcp.AddTool(mcp.NewTool("set_task_state",
		mcp.WithDescription("Change a listed task's state. DONE records a CLOSED timestamp."),
		withIndex(),
		mcp.WithString("state", mcp.Required(), mcp.Description("TODO, DONE, CANCELLED, WAITING, IN-PROGRESS, SOMEDAY or NEXT")),
		withSession(),
	), s.setTaskState)

	s.mcp.AddTool(mcp.NewTool("reschedule_task",
		mcp.WithDescription("Set a listed task's SCHEDULED date."),
		withIndex(),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD, today, tomorrow, today+N, next <weekday> or in N days")),
		withSession(),
	), s.rescheduleTask)

	s.mcp.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a listed task together with its body and subtasks."),
		withIndex(),
		withSession(),
	), s.deleteTask)

	s.mcp.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Add a timestamped comment to a listed task."),
		withIndex(),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
		withSession(),
	), s.addComment)

	s.mcp.AddTool(mcp.NewTool("update_comment",
		mcp.WithDescription("Replace a comment's text, keeping its timestamp."),
		withIndex(),
		mcp.WithNumber("comment", mcp.Required(), mcp.Description("Comment number from read_task")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New text")),
		withSession(),
	), s.updateComment)

	s.mcp.AddTool(mcp.NewTool("delete_comment",
		mcp.WithDescription("Delete a comment from a listed task."),
		withIndex(),
		mcp.WithNumber("comment", mcp.Required(), mcp.Description("Comment number from read_task")),
		withSession(),
	), s.deleteComment)

	s.mcp.AddTool(mcp.NewTool("get_task_format",
		mcp.WithDescription("Returns the task document format. Call this before editing tasks."),
	), s.getTaskFormat)

	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Task Document Format",
			mcp.WithResourceDescription("Org-mode layout of the task document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func session(req mcp.CallToolRequest) string {
	return req.GetString("session", DefaultSession)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := query.Request{View: query.View(req.GetString("view", string(query.ViewToday)))}
	if raw := req.GetString("date", ""); raw != "" {
		d, err := orgdate.ParseStrict(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.Date = d
	}
	res, err := s.svc.List(ctx, session(req), r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) readTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Read(ctx, session(req), n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, q, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Create(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t), nil
}

func (s *Server) renameTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Rename(ctx, session(req), n, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t), nil
}

func (s *Server) setTaskState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := req.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.ChangeState(ctx, session(req), n, state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t), nil
}

func (s *Server) rescheduleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Reschedule(ctx, session(req), n, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t), nil
}

func (s *Server) deleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Delete(ctx, session(req), n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", t.Title)), nil
}

func (s *Server) addComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comments, err := s.svc.AddComment(ctx, session(req), n, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comments), nil
}

func (s *Server) updateComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := req.RequireInt("comment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comments, err := s.svc.UpdateComment(ctx, session(req), n, c, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comments), nil
}

func (s *Server) deleteComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("n")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := req.RequireInt("comment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comments, err := s.svc.DeleteComment(ctx, session(req), n, c)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comments), nil
}

func (s *Server) getTaskFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskFormat), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     TaskFormat,
		},
	}, nil
}
