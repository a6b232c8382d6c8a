package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/agent/prompts"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// PlanDecision is the planner's structured verdict for one step: either
// the next sub-task to delegate, or termination with a final response.
type PlanDecision struct {
	Terminated    bool   `json:"terminated"`
	Plan          string `json:"plan,omitempty"`
	NextStep      string `json:"next_step,omitempty"`
	FinalResponse string `json:"final_response,omitempty"`
}

// planDecisionSchema constrains the planner's output.
var planDecisionSchema = llm.ResponseSchema{
	Name:        "plan_decision",
	Description: "The planner's decision for the current step",
	Schema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"terminated": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the task is complete or impossible and execution should stop",
			},
			"plan": map[string]interface{}{
				"type":        "string",
				"description": "High-level plan, present at task start or on revision",
			},
			"next_step": map[string]interface{}{
				"type":        "string",
				"description": "The next sub-task to delegate, required unless terminating",
			},
			"final_response": map[string]interface{}{
				"type":        "string",
				"description": "Final answer to the user, required when terminating",
			},
		},
		"required": []string{"terminated"},
	},
}

// Planner drives the decision role: it keeps the full task conversation
// and produces one PlanDecision per step.
type Planner struct {
	provider llm.Provider
	exec     *ExecutionContext
	page     Page
	bus      *events.Bus
	history  *History
	retry    llm.RetryConfig
	log      *logging.Logger
}

// NewPlanner wires a planner against the shared execution context.
func NewPlanner(provider llm.Provider, exec *ExecutionContext, page Page, bus *events.Bus, retry llm.RetryConfig) *Planner {
	log, err := logging.NewLogger("planner")
	if err != nil {
		log.Warnf("failed to initialize planner logger, using stderr fallback: %v", err)
	}
	return &Planner{
		provider: provider,
		exec:     exec,
		page:     page,
		bus:      bus,
		history:  NewHistory(),
		retry:    retry,
		log:      log,
	}
}

// History exposes the planner transcript for persistence.
func (p *Planner) History() *History {
	return p.history
}

// Reset clears the transcript for a new task.
func (p *Planner) Reset() {
	p.history.Clear()
}

// Step runs one planner decision cycle. The step counter advances and
// the tool round counter rewinds. Recoverable failures return *StepError
// so the executor can feed them back as the next input; cancellation
// returns ErrCancelled.
func (p *Planner) Step(ctx context.Context, input string) (*PlanDecision, error) {
	step := p.exec.BeginStep()
	followUp := step > 1

	p.emit(ctx, types.StepStart, types.EventData{
		TaskID:  p.exec.TaskID(),
		Step:    step,
		Details: input,
	})

	// The system message goes in once, at task start.
	if p.history.Len() == 0 {
		p.history.Add(types.NewSystemMessage(prompts.PlannerSystem()))
	}

	info, err := p.page.Info(ctx)
	if err != nil {
		return nil, p.stepFailed(ctx, step, fmt.Sprintf("failed to read page state: %v", err))
	}

	p.history.Add(types.NewUserMessage(prompts.PlannerUser(input, info.URL, info.Title, followUp)))

	// Models sometimes return output that doesn't satisfy the schema;
	// retry locally before treating it as a step failure.
	result, err := llm.Retry(ctx, p.retry,
		func(ctx context.Context) (*llm.StructuredResult, error) {
			if p.exec.Cancelled() {
				return nil, ErrCancelled
			}
			return p.provider.CompleteStructured(ctx, p.history.Messages(), planDecisionSchema)
		},
		func(r *llm.StructuredResult) bool { return r != nil && r.Parsed != nil },
	)
	if err != nil {
		if err == ErrCancelled || p.exec.Cancelled() {
			return nil, ErrCancelled
		}
		return nil, p.stepFailed(ctx, step, err.Error())
	}
	if p.exec.Cancelled() {
		return nil, ErrCancelled
	}
	if result.Parsed == nil {
		return nil, p.stepFailed(ctx, step, "planner did not produce a structured decision")
	}

	var decision PlanDecision
	if err := json.Unmarshal(result.Parsed, &decision); err != nil {
		return nil, p.stepFailed(ctx, step, fmt.Sprintf("planner decision did not match schema: %v", err))
	}

	recorded, _ := json.Marshal(decision)
	p.history.Add(types.NewAssistantMessage(string(recorded)))
	p.log.Debugf("step %d decision: terminated=%v next_step=%q", step, decision.Terminated, decision.NextStep)

	data := types.EventData{
		TaskID: p.exec.TaskID(),
		Step:   step,
	}

	if decision.Terminated {
		data.Details = decision.FinalResponse
		data.Final = true
		p.emit(ctx, types.StepOK, data)
		return &decision, nil
	}

	if decision.Plan != "" {
		data.Plan = decision.Plan
	}
	if decision.NextStep == "" {
		data.Details = "Only plan provided, but no next step provided"
		p.exec.RecordError()
		p.emit(ctx, types.StepFail, data)
		return nil, &StepError{Msg: data.Details}
	}

	data.Details = decision.NextStep
	p.emit(ctx, types.StepOK, data)
	return &decision, nil
}

// stepFailed records a recoverable failure: the error budget is charged,
// a step.fail event goes out and a StepError comes back.
func (p *Planner) stepFailed(ctx context.Context, step int, msg string) error {
	p.exec.RecordError()
	p.emit(ctx, types.StepFail, types.EventData{
		TaskID:  p.exec.TaskID(),
		Step:    step,
		Details: msg,
	})
	p.log.Errorf("step %d failed: %s", step, msg)
	return &StepError{Msg: msg}
}

func (p *Planner) emit(ctx context.Context, state types.ExecutionState, data types.EventData) {
	if err := p.bus.Emit(ctx, types.NewEvent(state, types.ActorPlanner, data)); err != nil {
		p.log.Warnf("event subscriber error: %v", err)
	}
}
