package events

import (
	"context"

	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// LoggingCallback returns a subscriber that mirrors every execution
// event into the session log, giving a file trail of each task's
// progress independent of any connected client.
func LoggingCallback() Callback {
	log, err := logging.NewLogger("events")
	if err != nil {
		log.Warnf("failed to initialize event logger, using stderr fallback: %v", err)
	}

	return func(ctx context.Context, event types.Event) error {
		d := event.Data
		switch {
		case d.Tool != "":
			log.Infof("[%s] %s step=%d round=%d tool=%s %s", d.TaskID, event.State, d.Step, d.ToolRound, d.Tool, d.Details)
		default:
			log.Infof("[%s] %s actor=%s step=%d %s", d.TaskID, event.State, event.Actor, d.Step, d.Details)
		}
		return nil
	}
}
