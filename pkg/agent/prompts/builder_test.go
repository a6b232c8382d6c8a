package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripSentinel(t *testing.T) {
	assert.Equal(t, "Flights found.", StripSentinel("Flights found. ##TERMINATE TASK##"))
	assert.Equal(t, "Flights found.", StripSentinel("##TERMINATE TASK## Flights found."))
	assert.Equal(t, "no sentinel here", StripSentinel("no sentinel here"))
	assert.Equal(t, "", StripSentinel("##TERMINATE TASK##"))
}

func TestPlannerUser(t *testing.T) {
	first := PlannerUser("find flights", "https://www.google.com", "Google", false)
	assert.True(t, strings.HasPrefix(first, "find flights"))
	assert.NotContains(t, first, "<task>")
	assert.Contains(t, first, "URL: https://www.google.com")
	assert.Contains(t, first, "Title: Google")

	followUp := PlannerUser("helper output", "https://www.google.com", "Google", true)
	assert.Contains(t, followUp, "Execute this task:")
	assert.Contains(t, followUp, "<task>\nhelper output\n</task>")
}

func TestNavigatorUser(t *testing.T) {
	msg := NavigatorUser("click the button", "https://example.com", "Example")
	assert.True(t, strings.HasPrefix(msg, "click the button"))
	assert.Contains(t, msg, "URL: https://example.com")

	// No page info when the URL is unknown.
	bare := NavigatorUser("click the button", "", "")
	assert.Equal(t, "click the button", bare)
}

func TestSystemPromptsRenderDatetime(t *testing.T) {
	assert.Contains(t, PlannerSystem(), "Current date and time:")
	assert.Contains(t, NavigatorSystem(), "Current date and time:")
	assert.NotContains(t, PlannerSystem(), "%s")
}
