package editor

import (
	"errors"
	"testing"

	"github.com/starford/orgtasks/internal/apperr"
)

const commentDoc = `* Inbox
** TODO Write report
SCHEDULED: <2026-02-15>
:PROPERTIES:
:CREATED: [2026-02-01 10:00:00]
:END:
- [2026-02-10 08:00:00] first
- [2026-02-11 08:00:00] second
Some body text
- [2026-02-12 08:00:00] third
** TODO Other
- [2026-02-13 08:00:00] not mine`

func TestComments(t *testing.T) {
	lines := split(commentDoc)
	comments, err := newEditor().Comments(lines, taskTitled(t, lines, "Write report"))
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 3 {
		t.Fatalf("len = %d, want 3", len(comments))
	}
	c := comments[2]
	if c.Index != 3 || c.Line != 9 || c.Timestamp != "2026-02-12 08:00:00" || c.Text != "third" {
		t.Errorf("comments[2] = %+v", c)
	}
}

func TestComments_None(t *testing.T) {
	lines := split("** TODO Quiet")
	comments, err := newEditor().Comments(lines, taskTitled(t, lines, "Quiet"))
	if err != nil {
		t.Fatal(err)
	}
	if comments == nil || len(comments) != 0 {
		t.Errorf("comments = %#v, want empty slice", comments)
	}
}

func TestAddComment_AfterMetadata(t *testing.T) {
	lines := split(commentDoc)
	out, err := newEditor().AddComment(lines, taskTitled(t, lines, "Write report"), "fresh\nnote")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(lines)+1 {
		t.Fatalf("len = %d, want %d", len(out), len(lines)+1)
	}
	if want := "- [2026-02-20 09:30:00] fresh note"; out[6] != want {
		t.Errorf("out[6] = %q, want %q", out[6], want)
	}
	if out[5] != ":END:" {
		t.Errorf("out[5] = %q, want :END:", out[5])
	}
}

func TestAddComment_BareHeading(t *testing.T) {
	lines := split("** TODO A\n** TODO B")
	out, err := newEditor().AddComment(lines, taskTitled(t, lines, "A"), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if out[1] != "- [2026-02-20 09:30:00] hi" || out[2] != "** TODO B" {
		t.Errorf("out = %q", out)
	}
}

func TestUpdateComment_OrdinalStability(t *testing.T) {
	e := newEditor()
	lines := split(commentDoc)
	task := taskTitled(t, lines, "Write report")

	before, err := e.Comments(lines, task)
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.UpdateComment(lines, task, 2, "second, revised")
	if err != nil {
		t.Fatal(err)
	}
	after, err := e.Comments(out, taskTitled(t, out, "Write report"))
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("count = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if i == 1 {
			if after[i].Text != "second, revised" {
				t.Errorf("text = %q", after[i].Text)
			}
			if after[i].Timestamp != before[i].Timestamp {
				t.Errorf("timestamp = %q, want %q", after[i].Timestamp, before[i].Timestamp)
			}
			continue
		}
		if after[i] != before[i] {
			t.Errorf("comment %d changed: %+v -> %+v", i+1, before[i], after[i])
		}
	}
}

func TestDeleteComment(t *testing.T) {
	e := newEditor()
	lines := split(commentDoc)
	out, err := e.DeleteComment(lines, taskTitled(t, lines, "Write report"), 1)
	if err != nil {
		t.Fatal(err)
	}
	comments, err := e.Comments(out, taskTitled(t, out, "Write report"))
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 || comments[0].Text != "second" {
		t.Errorf("comments = %+v", comments)
	}
}

func TestCommentOutOfRange(t *testing.T) {
	e := newEditor()
	lines := split(commentDoc)
	task := taskTitled(t, lines, "Write report")

	for _, n := range []int{0, 4, -1} {
		_, err := e.DeleteComment(lines, task, n)
		if !errors.Is(err, apperr.ErrCommentIndexOutOfRange) {
			t.Errorf("DeleteComment(%d) err = %v", n, err)
		}
		var rangeErr *apperr.CommentRangeError
		if !errors.As(err, &rangeErr) || rangeErr.Count != 3 {
			t.Errorf("DeleteComment(%d) err = %#v", n, err)
		}
	}
	if _, err := e.UpdateComment(lines, task, 9, "x"); !errors.Is(err, apperr.ErrCommentIndexOutOfRange) {
		t.Errorf("UpdateComment err = %v", err)
	}
}
