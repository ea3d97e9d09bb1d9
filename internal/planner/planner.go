package planner

import (
	"context"
	"fmt"
	"log"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/validator"
)

// PlannerResult carries the parsed, eagerly-validated plan and its
// fingerprint for caching and log correlation.
type PlannerResult struct {
	DSL         *dsl.DSL
	Fingerprint string
}

// Planner converts natural language into a typed plan via the LLM client.
type Planner struct {
	client Client
}

// NewPlanner builds a planner over the given LLM client.
func NewPlanner(client Client) *Planner {
	return &Planner{client: client}
}

// Plan produces a validated DSL plan for the request. Malformed LLM output
// and contract violations surface as *validator.ValidationError so they
// never reach the executor; transport failures surface as plain errors.
func (p *Planner) Plan(ctx context.Context, naturalLanguage string, contracts map[string]*contract.ResourceContract, intent string, resources []string) (*PlannerResult, error) {
	if intent != IntentRead && intent != IntentWrite {
		return nil, &validator.ValidationError{
			ErrorType: validator.ErrInvalidQuery,
			Message:   fmt.Sprintf("unknown intent %q", intent),
		}
	}

	projection := Project(contracts, resources)
	if len(projection) == 0 {
		return nil, &validator.ValidationError{
			ErrorType: validator.ErrResourceNotFound,
			Message:   "no contracts available for the requested resources",
		}
	}

	raw, err := p.client.PlanOperation(ctx, naturalLanguage, projection, intent, resources)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}

	plan, err := dsl.Decode(raw)
	if err != nil {
		return nil, &validator.ValidationError{
			ErrorType: validator.ErrInvalidQuery,
			Message:   fmt.Sprintf("planner produced malformed output: %v", err),
		}
	}

	// Eager pass over every step. The validator runs again later in the
	// pipeline; this keeps malformed LLM output from ever leaving the
	// planner.
	for i, step := range plan.Steps {
		if !containsString(resources, step.ResourceName()) {
			return nil, &validator.ValidationError{
				ErrorType: validator.ErrInvalidQuery,
				Message:   fmt.Sprintf("step %d targets %q outside the routed resources", i, step.ResourceName()),
				Resource:  step.ResourceName(),
			}
		}
		if verr := validator.ValidateOperation(step, contracts); verr != nil {
			return nil, verr
		}
	}

	fingerprint, err := dsl.Fingerprint(plan)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting plan: %w", err)
	}
	log.Printf("planned %s over %v fingerprint=%s", intent, plan.Resources(), fingerprint)

	return &PlannerResult{DSL: plan, Fingerprint: fingerprint}, nil
}
