package mcpserver

// FormatURI is the resource URI of TaskFormat.
const FormatURI = "orgtasks://format"

// TaskFormat describes the org document layout the engine reads and writes.
// LLM consumers should read it before editing the raw document.
const TaskFormat = `# Task Document Format

Tasks live in a single org-mode file. The engine edits it line by line and
leaves everything it does not touch byte-for-byte intact.

## Heading

` + "```" + `
** TODO [#A] Call the plumber :home:errands:
` + "```" + `

- One or more ` + "`*`" + ` markers, then a space.
- A state keyword: TODO, DONE, CANCELLED, WAITING, IN-PROGRESS, SOMEDAY, NEXT.
  Headings without one are section headings, not tasks.
- Optional priority ` + "`[#X]`" + ` with a single capital letter.
- The title.
- Optional tag cluster ` + "`:tag1:tag2:`" + ` at the end of the line.

## Planning lines

Directly below the heading:

` + "```" + `
SCHEDULED: <2026-02-20>
DEADLINE: <2026-02-27>
CLOSED: [2026-02-20 09:30:00] SCHEDULED: <2026-02-20>
` + "```" + `

Marking a task DONE adds a CLOSED timestamp. When a SCHEDULED or DEADLINE line
exists the CLOSED marker is prepended to it.

## Property drawer

` + "```" + `
:PROPERTIES:
:CREATED: [2026-02-20 09:30:00]
:SOURCE: API
:END:
` + "```" + `

The drawer is opaque to the engine.

## Comments

` + "```" + `
- [2026-02-20 09:30:00] Called, no answer
` + "```" + `

Comments are numbered from 1 in document order within the task body. New
comments go after the planning lines and the drawer.

## Addressing tasks

Tools take a display index ` + "`n`" + ` from the last list_tasks call of the same
session. Call list_tasks again after the document changes underneath you.

## Creating tasks

create_task accepts free text. A leading ` + "`!`" + ` sets priority A. A date token such
as ` + "`@2026-03-01`" + `, ` + "`@tomorrow`" + `, ` + "`@today+3`" + `, ` + "`@next monday`" + ` or ` + "`@in 5 days`" + `
becomes the SCHEDULED date.
`
