// Package models defines the domain types for orgtasks.
//
// Tasks and comments have no identity apart from their text in the
// document. Every value here is a snapshot taken at parse time.
package models

import (
	"strings"
	"time"
)

// State is a task lifecycle keyword.
type State string

// Recognized state keywords.
const (
	StateTodo     State = "TODO"
	StateDone     State = "DONE"
	StateHold     State = "HOLD"
	StateStarted  State = "STARTED"
	StateCanceled State = "CANCELED"
	StateSomeday  State = "SOMEDAY"
	StateCheck    State = "CHECK"
)

// States lists every recognized keyword in document order of precedence.
var States = []State{StateTodo, StateDone, StateHold, StateStarted, StateCanceled, StateSomeday, StateCheck}

// Valid reports whether s is one of the recognized keywords.
func (s State) Valid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

// Open reports whether the task still needs doing. Only TODO counts as open.
func (s State) Open() bool { return s == StateTodo }

// NormalizeState upper-cases and trims a user supplied keyword.
func NormalizeState(s string) State {
	return State(strings.ToUpper(strings.TrimSpace(s)))
}

// Task is one outline heading carrying a state keyword.
type Task struct {
	Level     int        `json:"level"`
	State     State      `json:"state"`
	Priority  string     `json:"priority,omitempty"`
	Title     string     `json:"title"`
	Tags      []string   `json:"tags"`
	Scheduled *time.Time `json:"scheduled,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Closed    *time.Time `json:"closed,omitempty"`
	// Line is the heading's line index when the snapshot was parsed.
	// It is informational only; edits always re-locate the task.
	Line int `json:"line"`
}

// Date returns the date used for agenda filtering: scheduled wins over deadline.
func (t Task) Date() *time.Time {
	if t.Scheduled != nil {
		return t.Scheduled
	}
	return t.Deadline
}

// IndexedTask is a task as shown in a listing, with its 1-based display index.
type IndexedTask struct {
	Index int `json:"index"`
	Task
}

// Comment is a timestamped note line in a task body.
type Comment struct {
	// Index is the 1-based ordinal among the task's comments at scan time.
	Index     int    `json:"index"`
	Line      int    `json:"line"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}
