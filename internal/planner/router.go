package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// WriteConfidenceThreshold gates WRITE intents: below this the router asks
// for clarification instead of planning.
const WriteConfidenceThreshold = 0.80

// maxRoutedResources caps how many resources a single request may touch.
// Two is the norm; three only when a join is clearly implied.
const maxRoutedResources = 3

// RouterResult is the routing verdict handed to the planner.
type RouterResult struct {
	Resources  []string
	Intent     string
	Confidence float64
	Reason     string
}

// AmbiguousIntentError reports a request the router refused to act on. The
// clarification is safe to show to the end user verbatim.
type AmbiguousIntentError struct {
	Clarification string
}

func (e *AmbiguousIntentError) Error() string {
	return fmt.Sprintf("AMBIGUOUS_INTENT: %s", e.Clarification)
}

// Router maps natural language onto resources and a READ/WRITE intent.
type Router struct {
	client    Client
	resources []string
}

// NewRouter builds a router over the given resource names.
func NewRouter(client Client, resources []string) *Router {
	names := append([]string(nil), resources...)
	sort.Strings(names)
	return &Router{client: client, resources: names}
}

// AvailableResources returns the resource names the router will consider.
func (r *Router) AvailableResources() []string {
	return append([]string(nil), r.resources...)
}

// Route asks the LLM for a routing decision, then applies the deterministic
// gates: intent sanity, WRITE confidence, resource validity, and the
// resource-count cap.
func (r *Router) Route(ctx context.Context, naturalLanguage string, hints map[string]interface{}) (*RouterResult, error) {
	decision, err := r.client.RouteIntent(ctx, naturalLanguage, hints, r.resources)
	if err != nil {
		return nil, fmt.Errorf("routing failed: %w", err)
	}

	if decision.Intent != IntentRead && decision.Intent != IntentWrite {
		return nil, fmt.Errorf("router returned unknown intent %q", decision.Intent)
	}
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return nil, fmt.Errorf("router confidence %v out of range", decision.Confidence)
	}

	result := &RouterResult{
		Resources:  append([]string(nil), decision.Resources...),
		Intent:     decision.Intent,
		Confidence: decision.Confidence,
		Reason:     decision.Reason,
	}

	if result.Intent == IntentWrite && result.Confidence < WriteConfidenceThreshold {
		return nil, &AmbiguousIntentError{
			Clarification: clarify(naturalLanguage, result.Resources),
		}
	}

	for _, name := range result.Resources {
		if !containsString(r.resources, name) {
			return nil, fmt.Errorf("router selected unknown resource %q", name)
		}
	}
	if len(result.Resources) == 0 {
		return nil, fmt.Errorf("router selected no resources")
	}
	if len(result.Resources) > maxRoutedResources {
		result.Resources = result.Resources[:maxRoutedResources]
	}

	return result, nil
}

// clarify builds a follow-up question for an ambiguous request from simple
// keyword heuristics.
func clarify(naturalLanguage string, resources []string) string {
	lower := strings.ToLower(naturalLanguage)
	switch {
	case strings.Contains(lower, "update") || strings.Contains(lower, "change"):
		return "Which specific record do you want to update? Please provide a unique identifier."
	case strings.Contains(lower, "create") || strings.Contains(lower, "add"):
		return "What specific information should be included in the new record?"
	case strings.Contains(lower, "status"):
		return "Do you want to view the current status or change it to a specific value?"
	default:
		return fmt.Sprintf("Are you looking to read information or make changes to %s?",
			strings.Join(resources, ", "))
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
