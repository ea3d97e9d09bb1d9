package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/validator"
)

func testContracts(t *testing.T) map[string]*contract.ResourceContract {
	t.Helper()
	set, ok := contract.NewRegistry().ForRole(contract.DefaultRole)
	require.True(t, ok)
	return set
}

func TestRouteHappyPath(t *testing.T) {
	mock := &MockClient{RouteResponse: &RouteDecision{
		Resources:  []string{"cases"},
		Intent:     IntentRead,
		Confidence: 0.9,
		Reason:     "query mentions open cases",
	}}
	router := NewRouter(mock, []string{"cases", "documents"})

	result, err := router.Route(context.Background(), "show me open cases", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"cases"}, result.Resources)
	assert.Equal(t, IntentRead, result.Intent)
}

func TestRouteLowConfidenceWrite(t *testing.T) {
	mock := &MockClient{RouteResponse: &RouteDecision{
		Resources:  []string{"cases"},
		Intent:     IntentWrite,
		Confidence: 0.5,
	}}
	router := NewRouter(mock, []string{"cases"})

	_, err := router.Route(context.Background(), "update the case", nil)
	var ambiguous *AmbiguousIntentError
	require.ErrorAs(t, err, &ambiguous)
	assert.Contains(t, ambiguous.Clarification, "unique identifier")
}

func TestRouteLowConfidenceReadPasses(t *testing.T) {
	mock := &MockClient{RouteResponse: &RouteDecision{
		Resources:  []string{"cases"},
		Intent:     IntentRead,
		Confidence: 0.5,
	}}
	router := NewRouter(mock, []string{"cases"})

	_, err := router.Route(context.Background(), "maybe show cases?", nil)
	assert.NoError(t, err)
}

func TestRouteClarificationHeuristics(t *testing.T) {
	tests := []struct {
		query  string
		substr string
	}{
		{"change the client name", "unique identifier"},
		{"add a new communication", "new record"},
		{"set the status", "current status or change it"},
		{"do something with the data", "read information or make changes"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			mock := &MockClient{RouteResponse: &RouteDecision{
				Resources: []string{"cases"}, Intent: IntentWrite, Confidence: 0.3,
			}}
			router := NewRouter(mock, []string{"cases"})
			_, err := router.Route(context.Background(), tt.query, nil)
			var ambiguous *AmbiguousIntentError
			require.ErrorAs(t, err, &ambiguous)
			assert.Contains(t, ambiguous.Clarification, tt.substr)
		})
	}
}

func TestRouteRejections(t *testing.T) {
	router := func(d *RouteDecision) *Router {
		return NewRouter(&MockClient{RouteResponse: d}, []string{"cases", "documents"})
	}

	_, err := router(&RouteDecision{Resources: []string{"invoices"}, Intent: IntentRead, Confidence: 0.9}).
		Route(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "unknown resource")

	_, err = router(&RouteDecision{Resources: []string{"cases"}, Intent: "DELETE", Confidence: 0.9}).
		Route(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "unknown intent")

	_, err = router(&RouteDecision{Resources: []string{"cases"}, Intent: IntentRead, Confidence: 1.5}).
		Route(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "out of range")

	_, err = router(&RouteDecision{Intent: IntentRead, Confidence: 0.9}).
		Route(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "no resources")
}

func TestRouteCapsResources(t *testing.T) {
	mock := &MockClient{RouteResponse: &RouteDecision{
		Resources:  []string{"cases", "documents", "document_analysis", "client_communications"},
		Intent:     IntentRead,
		Confidence: 0.9,
	}}
	router := NewRouter(mock, []string{"cases", "documents", "document_analysis", "client_communications"})

	result, err := router.Route(context.Background(), "everything about everything", nil)
	require.NoError(t, err)
	assert.Len(t, result.Resources, 3)
}

func TestRouteClientError(t *testing.T) {
	router := NewRouter(&MockClient{RouteErr: errors.New("api quota exceeded")}, []string{"cases"})
	_, err := router.Route(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "routing failed")
}

func TestPlanHappyPath(t *testing.T) {
	contracts := testContracts(t)
	mock := &MockClient{PlanResponse: json.RawMessage(`{
		"steps": [{
			"op": "READ",
			"resource": "cases",
			"select": ["case_id", "client_name"],
			"where": [{"field": "status", "op": "=", "value": "OPEN"}],
			"limit": 10
		}]
	}`)}
	p := NewPlanner(mock)

	result, err := p.Plan(context.Background(), "show open cases", contracts, IntentRead, []string{"cases"})
	require.NoError(t, err)
	assert.Len(t, result.Fingerprint, 16)

	read, ok := result.DSL.Primary().(*dsl.ReadOperation)
	require.True(t, ok)
	assert.Equal(t, "cases", read.Resource)

	assert.Equal(t, IntentRead, mock.LastIntent)
	assert.Equal(t, []string{"cases"}, mock.LastResources)
}

func TestPlanUnknownIntent(t *testing.T) {
	p := NewPlanner(&MockClient{})
	_, err := p.Plan(context.Background(), "q", testContracts(t), "DELETE", []string{"cases"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validator.ErrInvalidQuery, verr.ErrorType)
}

func TestPlanMalformedOutput(t *testing.T) {
	mock := &MockClient{PlanResponse: json.RawMessage(`the user wants to see cases`)}
	p := NewPlanner(mock)

	_, err := p.Plan(context.Background(), "q", testContracts(t), IntentRead, []string{"cases"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validator.ErrInvalidQuery, verr.ErrorType)
	assert.Contains(t, verr.Message, "malformed")
}

func TestPlanEagerValidation(t *testing.T) {
	// The plan is well-formed JSON but violates the contract.
	mock := &MockClient{PlanResponse: json.RawMessage(`{
		"steps": [{
			"op": "UPDATE",
			"resource": "cases",
			"where": [{"field": "status", "op": "=", "value": "OPEN"}],
			"update": {"status": "CLOSED"},
			"limit": 1
		}]
	}`)}
	p := NewPlanner(mock)

	_, err := p.Plan(context.Background(), "close all open cases", testContracts(t), IntentWrite, []string{"cases"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "primary key equality")
}

func TestPlanRejectsOffTargetResource(t *testing.T) {
	mock := &MockClient{PlanResponse: json.RawMessage(`{
		"steps": [{"op": "READ", "resource": "documents", "select": ["document_id"], "limit": 10}]
	}`)}
	p := NewPlanner(mock)

	_, err := p.Plan(context.Background(), "q", testContracts(t), IntentRead, []string{"cases"})
	var verr *validator.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "outside the routed resources")
}

func TestPlanClientError(t *testing.T) {
	p := NewPlanner(&MockClient{PlanErr: errors.New("model overloaded")})
	_, err := p.Plan(context.Background(), "q", testContracts(t), IntentRead, []string{"cases"})
	require.Error(t, err)
	var verr *validator.ValidationError
	assert.False(t, errors.As(err, &verr), "transport failures are not validation errors")
}

func TestProjectionExcludesUnreadableFields(t *testing.T) {
	contracts := testContracts(t)
	hidden := *contracts["cases"]
	hidden.Fields = append([]contract.Field{}, hidden.Fields...)
	for i := range hidden.Fields {
		if hidden.Fields[i].Name == "client_phone" {
			hidden.Fields[i].Readable = false
		}
	}

	projection := Project(map[string]*contract.ResourceContract{"cases": &hidden}, []string{"cases"})
	require.Len(t, projection, 1)
	for _, f := range projection[0].Fields {
		assert.NotEqual(t, "client_phone", f.Name)
	}
	_, filtered := projection[0].FiltersAllowed["client_phone"]
	assert.False(t, filtered)
}

func TestProjectionIsDeterministic(t *testing.T) {
	contracts := testContracts(t)
	a := Project(contracts, []string{"documents", "cases"})
	b := Project(contracts, []string{"cases", "documents"})
	require.Len(t, a, 2)
	assert.Equal(t, a[0].Resource, b[0].Resource)
	assert.Equal(t, "cases", a[0].Resource)
}

func TestCleanJSONResponse(t *testing.T) {
	fenced := "```json\n{\"steps\": []}\n```"
	assert.Equal(t, `{"steps": []}`, cleanJSONResponse(fenced))

	bare := "```\n{\"a\": 1}\n```"
	assert.JSONEq(t, `{"a": 1}`, cleanJSONResponse(bare))

	plain := `{"a": 1}`
	assert.Equal(t, plain, cleanJSONResponse(plain))
}
