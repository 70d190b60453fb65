package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/document"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/taskservice"
	"github.com/starford/orgtasks/internal/testutil"
)

const sampleDoc = `* Inbox
** TODO Buy milk
SCHEDULED: <2026-02-20>
** TODO Water plants
SCHEDULED: <2026-02-20>
`

func testServer(t *testing.T) (*Server, *document.Document) {
	t.Helper()
	doc, _ := testutil.TestDocument(t, sampleDoc)
	clock := testutil.Clock()
	svc := taskservice.NewService(doc,
		cache.NewSnapshots(time.Hour, clock),
		cache.NewSessions(time.Hour, clock),
		taskservice.WithClock(clock),
		taskservice.WithIndex(testutil.TestDB(t)),
	)
	return New(svc, "test"), doc
}

// callTool invokes a handler directly; mcp-go has no in-process call helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_tasks":      srv.listTasks,
		"read_task":       srv.readTask,
		"search_tasks":    srv.searchTasks,
		"create_task":     srv.createTask,
		"rename_task":     srv.renameTask,
		"set_task_state":  srv.setTaskState,
		"reschedule_task": srv.rescheduleTask,
		"delete_task":     srv.deleteTask,
		"add_comment":     srv.addComment,
		"update_comment":  srv.updateComment,
		"delete_comment":  srv.deleteComment,
		"get_task_format": srv.getTaskFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func readDoc(t *testing.T, doc *document.Document) string {
	t.Helper()
	text, err := doc.Read()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestListAndReadTask(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_tasks", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("list error: %s", resultText(r))
	}
	var res taskservice.ListResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 2 || res.Tasks[1].Title != "Water plants" {
		t.Fatalf("list = %+v", res)
	}

	r = callTool(t, srv, "read_task", map[string]interface{}{"n": 2})
	if r.IsError {
		t.Fatalf("read error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Water plants") {
		t.Errorf("read = %s", resultText(r))
	}
}

func TestReadWithoutListing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_task", map[string]interface{}{"n": 1})
	if !r.IsError {
		t.Error("expected error without a listing")
	}
}

func TestSessionsScopeIndexes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "list_tasks", map[string]interface{}{"session": "a"})

	if r := callTool(t, srv, "read_task", map[string]interface{}{"n": 1, "session": "a"}); r.IsError {
		t.Errorf("session a: %s", resultText(r))
	}
	if r := callTool(t, srv, "read_task", map[string]interface{}{"n": 1}); !r.IsError {
		t.Error("default session should have no listing")
	}
}

func TestEditTools(t *testing.T) {
	srv, doc := testServer(t)
	callTool(t, srv, "list_tasks", map[string]interface{}{})

	r := callTool(t, srv, "set_task_state", map[string]interface{}{"n": 1, "state": "DONE"})
	if r.IsError {
		t.Fatalf("state: %s", resultText(r))
	}
	r = callTool(t, srv, "reschedule_task", map[string]interface{}{"n": 2, "date": "tomorrow"})
	if r.IsError {
		t.Fatalf("reschedule: %s", resultText(r))
	}

	// The DONE task no longer matches its TODO snapshot.
	if r := callTool(t, srv, "rename_task", map[string]interface{}{"n": 1, "title": "x"}); !r.IsError {
		t.Fatal("expected stale snapshot error")
	}
	callTool(t, srv, "list_tasks", map[string]interface{}{"view": "date", "date": "2026-02-20"})
	r = callTool(t, srv, "rename_task", map[string]interface{}{"n": 1, "title": "Buy oat milk"})
	if r.IsError {
		t.Fatalf("rename: %s", resultText(r))
	}

	want := `* Inbox
** DONE Buy oat milk
CLOSED: [2026-02-20 09:30:00] SCHEDULED: <2026-02-20>
** TODO Water plants
SCHEDULED: <2026-02-21>
`
	if got := readDoc(t, doc); got != want {
		t.Errorf("document =\n%s\nwant\n%s", got, want)
	}
}

func TestSetStateInvalid(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "list_tasks", map[string]interface{}{})
	r := callTool(t, srv, "set_task_state", map[string]interface{}{"n": 1, "state": "MAYBE"})
	if !r.IsError {
		t.Error("expected error for unknown state")
	}
}

func TestCreateAndSearch(t *testing.T) {
	srv, doc := testServer(t)

	r := callTool(t, srv, "create_task", map[string]interface{}{"text": "!Renew passport @2026-03-01"})
	if r.IsError {
		t.Fatalf("create: %s", resultText(r))
	}
	var task models.Task
	if err := json.Unmarshal([]byte(resultText(r)), &task); err != nil {
		t.Fatal(err)
	}
	if task.Title != "Renew passport" || task.Priority != "A" {
		t.Errorf("created = %+v", task)
	}
	if !strings.Contains(readDoc(t, doc), "** TODO [#A] Renew passport\nSCHEDULED: <2026-03-01>") {
		t.Errorf("document =\n%s", readDoc(t, doc))
	}

	r = callTool(t, srv, "search_tasks", map[string]interface{}{"query": "passport"})
	if r.IsError || !strings.Contains(resultText(r), "Renew passport") {
		t.Errorf("search = %s", resultText(r))
	}
}

func TestCommentTools(t *testing.T) {
	srv, doc := testServer(t)
	callTool(t, srv, "list_tasks", map[string]interface{}{})

	if r := callTool(t, srv, "add_comment", map[string]interface{}{"n": 1, "text": "shop closed"}); r.IsError {
		t.Fatalf("add: %s", resultText(r))
	}
	if r := callTool(t, srv, "update_comment", map[string]interface{}{"n": 1, "comment": 1, "text": "shop open"}); r.IsError {
		t.Fatalf("update: %s", resultText(r))
	}
	if !strings.Contains(readDoc(t, doc), "- [2026-02-20 09:30:00] shop open") {
		t.Errorf("document =\n%s", readDoc(t, doc))
	}
	if r := callTool(t, srv, "delete_comment", map[string]interface{}{"n": 1, "comment": 3}); !r.IsError {
		t.Error("expected out-of-range error")
	}
	if r := callTool(t, srv, "delete_comment", map[string]interface{}{"n": 1, "comment": 1}); r.IsError {
		t.Fatalf("delete: %s", resultText(r))
	}
	if got := readDoc(t, doc); got != sampleDoc {
		t.Errorf("document after delete =\n%s", got)
	}
}

func TestDeleteTask(t *testing.T) {
	srv, doc := testServer(t)
	callTool(t, srv, "list_tasks", map[string]interface{}{})

	r := callTool(t, srv, "delete_task", map[string]interface{}{"n": 1})
	if got := resultText(r); got != "deleted: Buy milk" {
		t.Errorf("delete = %q", got)
	}
	if strings.Contains(readDoc(t, doc), "Buy milk") {
		t.Error("task still present")
	}
}

func TestFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != FormatURI || !strings.Contains(tc.Text, "SCHEDULED:") {
		t.Errorf("resource = %+v", contents[0])
	}
	if r := callTool(t, srv, "get_task_format", nil); resultText(r) != TaskFormat {
		t.Error("get_task_format mismatch")
	}
}
