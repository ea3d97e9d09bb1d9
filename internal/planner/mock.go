package planner

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockClient is a canned-response Client for tests and offline development.
type MockClient struct {
	RouteResponse *RouteDecision
	RouteErr      error
	PlanResponse  json.RawMessage
	PlanErr       error

	// Captured inputs from the last calls.
	LastQuery      string
	LastProjection []ContractProjection
	LastIntent     string
	LastResources  []string
}

func (m *MockClient) RouteIntent(_ context.Context, naturalLanguage string, _ map[string]interface{}, _ []string) (*RouteDecision, error) {
	m.LastQuery = naturalLanguage
	if m.RouteErr != nil {
		return nil, m.RouteErr
	}
	if m.RouteResponse == nil {
		return nil, fmt.Errorf("mock has no route response")
	}
	return m.RouteResponse, nil
}

func (m *MockClient) PlanOperation(_ context.Context, naturalLanguage string, contracts []ContractProjection, intent string, resources []string) (json.RawMessage, error) {
	m.LastQuery = naturalLanguage
	m.LastProjection = contracts
	m.LastIntent = intent
	m.LastResources = resources
	if m.PlanErr != nil {
		return nil, m.PlanErr
	}
	if m.PlanResponse == nil {
		return nil, fmt.Errorf("mock has no plan response")
	}
	return m.PlanResponse, nil
}
