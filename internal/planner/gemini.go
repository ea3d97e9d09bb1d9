package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client on top of the Gemini API. Routing uses the
// flash model for latency; planning uses it with zero temperature for
// deterministic output.
type GeminiClient struct {
	client     *genai.Client
	routeModel *genai.GenerativeModel
	planModel  *genai.GenerativeModel
}

// NewGeminiClient initializes the Gemini client. If the API key is empty,
// the caller receives a nil client and no error so that commands can decide
// how to handle missing configuration.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	routeModel := client.GenerativeModel("gemini-2.5-flash-preview-09-2025")
	configureModel(routeModel, 0.1)

	planModel := client.GenerativeModel("gemini-2.5-flash-preview-09-2025")
	configureModel(planModel, 0)

	return &GeminiClient{
		client:     client,
		routeModel: routeModel,
		planModel:  planModel,
	}, nil
}

func configureModel(model *genai.GenerativeModel, temperature float32) {
	t := temperature
	model.Temperature = &t
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockNone,
		},
	}
}

// Close releases underlying resources.
func (g *GeminiClient) Close() {
	if g == nil || g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		log.Printf("warning: failed to close Gemini client: %v", err)
	}
}

// RouteIntent asks the model which resources a request touches and whether
// it reads or writes.
func (g *GeminiClient) RouteIntent(ctx context.Context, naturalLanguage string, hints map[string]interface{}, availableResources []string) (*RouteDecision, error) {
	if g == nil || g.routeModel == nil {
		return nil, fmt.Errorf("llm client is not initialized")
	}

	systemPrompt := fmt.Sprintf(`You are a router for a database query system. Your job is to:
1. Identify the most likely resources (tables) needed for the query
2. Determine if this is a READ or WRITE operation
3. Provide a confidence score (0.0-1.0)

Available resources: %s

Rules:
- Return exactly 2 resources by default, 3 only if a clear join is implied
- WRITE operations require high confidence (>0.8)
- READ operations can proceed with moderate confidence
- Focus on the most relevant resources
- Respond ONLY with a single JSON object, no markdown or conversational text

Respond with JSON in this exact format:
{"resources": ["resource1", "resource2"], "intent": "READ", "confidence": 0.85, "reason": "explanation of resource selection"}`,
		strings.Join(availableResources, ", "))

	userPrompt := fmt.Sprintf(`Natural language query: %q
Hints: %s

Analyze this query and return the routing decision.`, naturalLanguage, jsonString(hints))

	g.routeModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := g.routeModel.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	var decision RouteDecision
	if err := json.Unmarshal([]byte(cleanJSONResponse(text)), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse routing response: %w", err)
	}
	return &decision, nil
}

// PlanOperation asks the model for a DSL plan over the projected contracts.
// The prompt carries today's date so that relative time phrases resolve to
// real values instead of whatever year the model was trained in.
func (g *GeminiClient) PlanOperation(ctx context.Context, naturalLanguage string, contracts []ContractProjection, intent string, resources []string) (json.RawMessage, error) {
	if g == nil || g.planModel == nil {
		return nil, fmt.Errorf("llm client is not initialized")
	}

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7).Format("2006-01-02")
	threeDaysAgo := now.AddDate(0, 0, -3).Format("2006-01-02")

	contractJSON, err := json.MarshalIndent(contracts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding contract projection: %w", err)
	}

	systemPrompt := fmt.Sprintf(`You are a query planner that converts natural language to a strict internal DSL.

TODAY'S DATE IS: %s
CURRENT YEAR IS: %d

Relative date interpretation:
- "last 7 days" = created_at >= %q
- "recent" = created_at >= %q
- "today" = created_at >= %q
- "this week" = created_at >= %q
NEVER use dates from earlier years. The current year is %d.

IMPORTANT: Generate %s operations based on the natural language intent.
For WRITE operations, choose between INSERT or UPDATE based on the request context.

Available resources and their contracts:
%s

DSL Format Rules:

READ operations:
{"steps": [{"op": "READ", "resource": "table_name", "select": ["field1"], "where": [{"field": "field_name", "op": "=", "value": "value"}], "order_by": [{"field": "created_at", "dir": "desc"}], "limit": 100}]}

UPDATE operations (MUST include PK equality and limit 1):
{"steps": [{"op": "UPDATE", "resource": "table_name", "where": [{"field": "id_field", "op": "=", "value": "specific_id"}], "update": {"field1": "new_value"}, "limit": 1}]}

INSERT operations (DB generates IDs, no explicit IDs):
{"steps": [{"op": "INSERT", "resource": "table_name", "values": {"field1": "value1"}}]}

Critical Rules:
- UPDATE: MUST include the primary key field in WHERE with equality (=) and limit: 1
- INSERT: NEVER include ID fields (they are auto-generated)
- Only use fields marked as readable (SELECT) or writable (INSERT/UPDATE)
- Only use operators allowed for each field per contracts
- Use proper data types for values
- Only reference resources from: %s
- For UPDATE, identify the primary key field (usually ends with _id)

Respond with valid JSON DSL only, no explanations.`,
		today, now.Year(), weekAgo, threeDaysAgo, today, weekAgo, now.Year(),
		intent, string(contractJSON), strings.Join(resources, ", "))

	userPrompt := fmt.Sprintf(`Convert this to DSL: %q
Expected operation type: %s
Target resources: %s

Generate the internal DSL:`, naturalLanguage, intent, strings.Join(resources, ", "))

	g.planModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := g.planModel.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(cleanJSONResponse(text)), nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from model: %v", resp)
	}
	part := resp.Candidates[0].Content.Parts[0]
	textPart, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from model: %T", part)
	}
	return string(textPart), nil
}

// cleanJSONResponse removes markdown code block wrappers around JSON.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		if firstNewline := strings.Index(cleaned, "\n"); firstNewline != -1 {
			cleaned = cleaned[firstNewline+1:]
		}
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimPrefix(cleaned, "```")

	return strings.TrimSpace(cleaned)
}

func jsonString(v interface{}) string {
	if v == nil {
		return "none"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "none"
	}
	return string(data)
}
