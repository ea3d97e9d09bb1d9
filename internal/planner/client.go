// Package planner turns natural language into validated DSL plans. The
// Router picks target resources and an intent, the Planner asks an LLM for a
// concrete plan and checks it eagerly before anything reaches the executor.
package planner

import (
	"context"
	"encoding/json"
)

// Intent is the coarse operation class the router assigns.
const (
	IntentRead  = "READ"
	IntentWrite = "WRITE"
)

// RouteDecision is the raw routing answer from the LLM.
type RouteDecision struct {
	Resources  []string `json:"resources"`
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
}

// Client is the LLM boundary. Implementations must return JSON parseable
// into the DSL from PlanOperation; the planner makes no assumption about
// model choice or prompting beyond that.
type Client interface {
	RouteIntent(ctx context.Context, naturalLanguage string, hints map[string]interface{}, availableResources []string) (*RouteDecision, error)
	PlanOperation(ctx context.Context, naturalLanguage string, contracts []ContractProjection, intent string, resources []string) (json.RawMessage, error)
}
