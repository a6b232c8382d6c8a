package prompts

import (
	"fmt"
	"strings"
	"time"
)

// PlannerSystem renders the planner system prompt with the current
// date and time baked in.
func PlannerSystem() string {
	return fmt.Sprintf(PlannerSystemPrompt, datetimeInfo())
}

// NavigatorSystem renders the navigator system prompt with the current
// date and time baked in.
func NavigatorSystem() string {
	return fmt.Sprintf(NavigatorSystemPrompt, datetimeInfo())
}

// PlannerUser builds a planner user turn. Follow-up turns wrap the input
// in a task block so the model distinguishes delegated feedback from the
// original request; both are annotated with the current page.
func PlannerUser(input, url, title string, followUp bool) string {
	content := input
	if followUp {
		content = fmt.Sprintf("Execute this task:\n<task>\n%s\n</task>", input)
	}
	return withPageInfo(content, url, title)
}

// NavigatorUser builds a navigator user turn annotated with the current
// page.
func NavigatorUser(input, url, title string) string {
	return withPageInfo(input, url, title)
}

// StripSentinel removes the termination sentinel from a navigator
// response so downstream consumers never see it.
func StripSentinel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, TerminationSentinel, ""))
}

func datetimeInfo() string {
	return fmt.Sprintf("Current date and time: %s", time.Now().Format("2006-01-02 15:04:05 MST"))
}

func withPageInfo(content, url, title string) string {
	if url == "" {
		return content
	}
	info := fmt.Sprintf("Current page:\n- URL: %s", url)
	if title != "" {
		info += fmt.Sprintf("\n- Title: %s", title)
	}
	return content + "\n\n" + info
}
