package parser

import "fmt"

const promptTemplate = `You are converting a Product Requirements Document into an actionable task list.

Read the PRD below and produce a JSON object of the exact shape:

{"tasks": [{"id": "T1", "title": "...", "description": "...", "priority": 1, "depends_on": []}]}

Rules:
- "id" values are short, unique, stable identifiers (T1, T2, ...).
- "priority" is a non-negative integer; lower runs first.
- "depends_on" lists ids of tasks that must complete first; omit or leave empty when there are none.
- Output nothing but the JSON object — no prose, no markdown fences.

PRD:

%s
`

func renderPrompt(prdContent string) string {
	return fmt.Sprintf(promptTemplate, prdContent)
}
