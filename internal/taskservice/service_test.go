package taskservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/orgtasks/internal/apperr"
	"github.com/starford/orgtasks/internal/cache"
	"github.com/starford/orgtasks/internal/document"
	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/query"
	"github.com/starford/orgtasks/internal/sse"
	"github.com/starford/orgtasks/internal/testutil"
)

const sampleDoc = `#+TITLE: Tasks
* Inbox
** TODO [#A] Buy milk :home:
SCHEDULED: <2026-02-20>
** TODO Review
SCHEDULED: <2026-02-10>
** TODO Review
SCHEDULED: <2026-02-20>
:PROPERTIES:
:CREATED: [2026-02-01 10:00:00]
:END:
- [2026-02-19 08:00:00] first look
** DONE Pay rent
CLOSED: [2026-02-01 10:00:00] SCHEDULED: <2026-02-01>
** TODO Later
SCHEDULED: <2026-02-24>
`

type recordedEvent struct {
	kind  string
	title string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	docs   int
}

func (f *fakePublisher) PublishTaskEvent(kind string, c sse.TaskChange) {
	f.mu.Lock()
	f.events = append(f.events, recordedEvent{kind, c.Title})
	f.mu.Unlock()
}

func (f *fakePublisher) PublishDocumentChanged() {
	f.mu.Lock()
	f.docs++
	f.mu.Unlock()
}

func (f *fakePublisher) last() recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return recordedEvent{}
	}
	return f.events[len(f.events)-1]
}

type env struct {
	svc    *Service
	doc    *document.Document
	events *fakePublisher
}

func newEnv(t *testing.T, content string, opts ...Option) env {
	t.Helper()
	doc, _ := testutil.TestDocument(t, content)
	pub := &fakePublisher{}
	clock := testutil.Clock()
	base := []Option{WithClock(clock), WithEvents(pub), WithIndex(testutil.TestDB(t))}
	svc := NewService(doc,
		cache.NewSnapshots(time.Hour, clock),
		cache.NewSessions(time.Hour, clock),
		append(base, opts...)...)
	return env{svc: svc, doc: doc, events: pub}
}

func (e env) text(t *testing.T) string {
	t.Helper()
	text, err := e.doc.Read()
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func (e env) list(t *testing.T, view query.View) *ListResult {
	t.Helper()
	res, err := e.svc.List(context.Background(), "k", query.Request{View: view})
	if err != nil {
		t.Fatalf("List(%s): %v", view, err)
	}
	return res
}

func titles(res *ListResult) []string {
	out := make([]string, len(res.Tasks))
	for i, t := range res.Tasks {
		out[i] = t.Title
	}
	return out
}

func TestList_Views(t *testing.T) {
	e := newEnv(t, sampleDoc)
	tests := []struct {
		view query.View
		want string
	}{
		{query.ViewToday, "Buy milk,Review"},
		{query.ViewWeek, "Buy milk,Review,Later"},
		{query.ViewOverdue, "Review"},
		{query.ViewAll, "Buy milk,Review,Review,Later"},
		{query.ViewTomorrow, ""},
	}
	for _, tt := range tests {
		res := e.list(t, tt.view)
		if got := strings.Join(titles(res), ","); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.view, got, tt.want)
		}
	}
}

func TestList_AllRespectsLimit(t *testing.T) {
	st := DefaultSettings()
	st.ListLimit = 2
	e := newEnv(t, sampleDoc, WithSettings(st))
	res := e.list(t, query.ViewAll)
	if len(res.Tasks) != 2 || res.Total != 4 {
		t.Errorf("tasks = %d, total = %d", len(res.Tasks), res.Total)
	}
}

func TestStats(t *testing.T) {
	e := newEnv(t, sampleDoc)
	s, err := e.svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 5 || s.ByState[models.StateDone] != 1 || s.Today != 2 || s.Overdue != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRead_WithComments(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)

	d, err := e.svc.Read(context.Background(), "k", 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.Title != "Review" || d.Index != 2 {
		t.Errorf("task = %+v", d.IndexedTask)
	}
	if len(d.Comments) != 1 || d.Comments[0].Text != "first look" {
		t.Errorf("comments = %+v", d.Comments)
	}
}

func TestRead_UnknownIndex(t *testing.T) {
	e := newEnv(t, sampleDoc)
	if _, err := e.svc.Read(context.Background(), "k", 1); !errors.Is(err, apperr.ErrSnapshotNotFound) {
		t.Errorf("before listing err = %v", err)
	}
	e.list(t, query.ViewToday)
	if _, err := e.svc.Read(context.Background(), "k", 9); !errors.Is(err, apperr.ErrSnapshotNotFound) {
		t.Errorf("out of range err = %v", err)
	}
}

func TestChangeState_DuplicateTitles(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday) // 1 = Buy milk, 2 = Review (2026-02-20)

	got, err := e.svc.ChangeState(context.Background(), "k", 2, "done")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != models.StateDone || got.Closed == nil {
		t.Errorf("returned task = %+v", got)
	}

	text := e.text(t)
	want := "** DONE Review\nCLOSED: [2026-02-20 09:30:00] SCHEDULED: <2026-02-20>\n"
	if !strings.Contains(text, want) {
		t.Errorf("document missing %q:\n%s", want, text)
	}
	if !strings.Contains(text, "** TODO Review\nSCHEDULED: <2026-02-10>") {
		t.Errorf("the other Review task was touched:\n%s", text)
	}
	if ev := e.events.last(); ev.kind != "updated" || ev.title != "Review" {
		t.Errorf("event = %+v", ev)
	}
}

func TestChangeState_Invalid(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)
	before := e.text(t)
	if _, err := e.svc.ChangeState(context.Background(), "k", 1, "FINISHED"); !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("err = %v", err)
	}
	if e.text(t) != before {
		t.Error("document changed on invalid state")
	}
}

func TestRename(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)
	got, err := e.svc.Rename(context.Background(), "k", 1, "Buy oat milk")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Buy oat milk" || got.Priority != "A" {
		t.Errorf("task = %+v", got)
	}
	if !strings.Contains(e.text(t), "** TODO [#A] Buy oat milk :home:\n") {
		t.Errorf("document:\n%s", e.text(t))
	}
}

func TestStaleSnapshot(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)
	if _, err := e.svc.Rename(context.Background(), "k", 1, "Something else"); err != nil {
		t.Fatal(err)
	}
	// The cached snapshot still says "Buy milk"; re-listing is required.
	if _, err := e.svc.Rename(context.Background(), "k", 1, "Again"); !errors.Is(err, apperr.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestReschedule(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)
	got, err := e.svc.Reschedule(context.Background(), "k", 1, "tomorrow")
	if err != nil {
		t.Fatal(err)
	}
	if got.Scheduled == nil || got.Scheduled.Day() != 21 {
		t.Errorf("scheduled = %v", got.Scheduled)
	}
	if !strings.Contains(e.text(t), "** TODO [#A] Buy milk :home:\nSCHEDULED: <2026-02-21>\n") {
		t.Errorf("document:\n%s", e.text(t))
	}

	if _, err := e.svc.Reschedule(context.Background(), "k", 1, "someday soon"); !errors.Is(err, apperr.ErrInvalidDateFormat) {
		t.Errorf("bad date err = %v", err)
	}
}

func TestCreatedTaskStaysEditableAfterReschedule(t *testing.T) {
	st := DefaultSettings()
	st.DefaultScheduledDays = nil
	e := newEnv(t, "* Inbox\n", WithSettings(st))
	ctx := context.Background()

	if _, err := e.svc.Create(ctx, "Call"); err != nil {
		t.Fatal(err)
	}
	e.list(t, query.ViewAll)
	if _, err := e.svc.Reschedule(ctx, "k", 1, "2026-03-01"); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	res, err := e.svc.List(ctx, "k", query.Request{View: query.ViewDate, Date: day})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Title != "Call" {
		t.Fatalf("listed = %+v", res.Tasks)
	}
	if _, err := e.svc.AddComment(ctx, "k", 1, "left a message"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	want := ":END:\nSCHEDULED: <2026-03-01>\n- [2026-02-20 09:30:00] left a message\n"
	if !strings.Contains(e.text(t), want) {
		t.Errorf("document:\n%s", e.text(t))
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)
	if _, err := e.svc.Delete(context.Background(), "k", 2); err != nil {
		t.Fatal(err)
	}
	text := e.text(t)
	if strings.Contains(text, "first look") || strings.Contains(text, "<2026-02-20>\n:PROPERTIES:") {
		t.Errorf("span not removed:\n%s", text)
	}
	if !strings.Contains(text, "** TODO Review\nSCHEDULED: <2026-02-10>\n** DONE Pay rent") {
		t.Errorf("neighbours damaged:\n%s", text)
	}
	if ev := e.events.last(); ev.kind != "deleted" {
		t.Errorf("event = %+v", ev)
	}
}

func TestCommentCRUD(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, sampleDoc)
	e.list(t, query.ViewToday)

	comments, err := e.svc.AddComment(ctx, "k", 2, "second look")
	if err != nil {
		t.Fatal(err)
	}
	// New comments go right after the metadata block.
	if len(comments) != 2 || comments[0].Text != "second look" || comments[1].Text != "first look" {
		t.Fatalf("after add = %+v", comments)
	}

	comments, err = e.svc.UpdateComment(ctx, "k", 2, 2, "first look, revised")
	if err != nil {
		t.Fatal(err)
	}
	if comments[1].Text != "first look, revised" || comments[1].Timestamp != "2026-02-19 08:00:00" {
		t.Errorf("after update = %+v", comments)
	}

	comments, err = e.svc.DeleteComment(ctx, "k", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].Index != 1 {
		t.Errorf("after delete = %+v", comments)
	}

	_, err = e.svc.DeleteComment(ctx, "k", 2, 5)
	var rangeErr *apperr.CommentRangeError
	if !errors.As(err, &rangeErr) || rangeErr.Count != 1 {
		t.Errorf("out of range err = %v", err)
	}

	if _, err := e.svc.AddComment(ctx, "k", 2, "  "); !errors.Is(err, apperr.ErrInvalidComment) {
		t.Errorf("empty comment err = %v", err)
	}
}

func TestCommentSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, sampleDoc)
	if _, err := e.svc.AppendSessionComment(ctx, "k", "x"); !errors.Is(err, apperr.ErrNoCommentSession) {
		t.Errorf("without session err = %v", err)
	}

	e.list(t, query.ViewToday)
	sess, err := e.svc.StartCommentSession(ctx, "k", 1)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Task.Title != "Buy milk" {
		t.Errorf("session task = %q", sess.Task.Title)
	}

	// A new listing does not disturb the binding.
	e.list(t, query.ViewAll)
	comments, err := e.svc.AppendSessionComment(ctx, "k", "get two")
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].Text != "get two" || comments[0].Timestamp != "2026-02-20 09:30:00" {
		t.Errorf("comments = %+v", comments)
	}

	e.svc.EndCommentSession("k")
	if _, err := e.svc.CommentSession("k"); !errors.Is(err, apperr.ErrNoCommentSession) {
		t.Errorf("after end err = %v", err)
	}
}

func TestSearch_FollowsMutations(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, sampleDoc)
	if err := e.svc.Reindex(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.Create(ctx, "Call the plumber"); err != nil {
		t.Fatal(err)
	}
	results, err := e.svc.Search(ctx, "plumber", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Call the plumber" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearch_Unavailable(t *testing.T) {
	doc, _ := testutil.TestDocument(t, sampleDoc)
	svc := NewService(doc, cache.NewSnapshots(time.Hour, nil), cache.NewSessions(time.Hour, nil))
	if _, err := svc.Search(context.Background(), "x", 0); !errors.Is(err, apperr.ErrSearchUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestDocumentReplace(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, sampleDoc)
	_, sum, err := e.svc.Document(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.ReplaceDocument(ctx, "** TODO x\n", "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale err = %v", err)
	}
	newSum, err := e.svc.ReplaceDocument(ctx, "** TODO x\n", sum)
	if err != nil {
		t.Fatal(err)
	}
	if newSum == sum || e.text(t) != "** TODO x\n" {
		t.Errorf("replace did not take: %q", e.text(t))
	}
	if e.events.docs != 1 {
		t.Errorf("document events = %d", e.events.docs)
	}
}
