package orchestrator

import (
	"fmt"
	"strings"

	"github.com/relay-loop/ralph/task"
)

// completionMarker is the literal substring an agent emits on standard
// output to self-report that the selected task is finished.
const completionMarker = "<promise>COMPLETE</promise>"

const promptTemplate = `You are working through a task list to complete a PRD.

## Current task

ID: %s
Title: %s
Description: %s

## Full task list

%s

## PRD

%s

## Progress so far

%s

Complete the current task above. When you have fully finished it, print the
literal line %s on its own. If the task cannot be completed, explain why and
stop without printing that marker.
`

// renderPrompt composes the fixed iteration prompt for the selected task,
// substituting the task id/title/description, a formatted table of the
// full task list, the PRD contents, and the progress journal so far.
func renderPrompt(current *task.Task, list *task.List, prdContent, progress string) string {
	return fmt.Sprintf(
		promptTemplate,
		current.ID, current.Title, current.Description,
		renderTaskTable(list),
		prdContent,
		progress,
		completionMarker,
	)
}

// renderTaskTable formats the task list as a plain-text table: id, status,
// priority, and title, one row per task in list order.
func renderTaskTable(list *task.List) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-12s %-4s %s\n", "ID", "STATUS", "PRI", "TITLE")
	for _, t := range list.Tasks {
		fmt.Fprintf(&b, "%-8s %-12s %-4d %s\n", t.ID, t.Status, t.Priority, t.Title)
	}
	return b.String()
}
