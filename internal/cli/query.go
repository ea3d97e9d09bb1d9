package cli

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"agent-gw-poc/internal/executor"
	"agent-gw-poc/internal/planner"
	"agent-gw-poc/internal/validator"
)

// QueryCommand runs the full pipeline: route, plan, validate, execute.
func QueryCommand(deps *Deps) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "query <natural language request>",
		Short: "Answer a natural-language request against the database",
		Long: `Route a natural-language request to resources, plan it into the internal
DSL with the LLM, validate the plan against the role's contracts, and
execute it. The result envelope is printed as JSON.

Examples:
  agent-gw query "show me all open cases"
  agent-gw query --role readonly "documents uploaded in the last 7 days"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), deps, role, joinArgs(args))
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role whose contracts apply (default from AGENT_GW_ROLE)")
	return cmd
}

func runQuery(ctx context.Context, deps *Deps, role, naturalLanguage string) error {
	if role == "" {
		role = deps.Config.Role
	}
	contracts, err := deps.contractsForRole(role)
	if err != nil {
		return err
	}

	llm, err := deps.NewLLM(ctx)
	if err != nil {
		return err
	}
	if closer, ok := llm.(interface{ Close() }); ok {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(ctx, deps.Config.CommandTimeout)
	defer cancel()

	router := planner.NewRouter(llm, deps.Registry.Resources(role))
	routed, err := router.Route(ctx, naturalLanguage, nil)
	if err != nil {
		var ambiguous *planner.AmbiguousIntentError
		if errors.As(err, &ambiguous) {
			return printJSON(map[string]interface{}{
				"success":       false,
				"error_type":    "AMBIGUOUS_INTENT",
				"clarification": ambiguous.Clarification,
			})
		}
		return err
	}
	log.Printf("routed to %v intent=%s confidence=%.2f", routed.Resources, routed.Intent, routed.Confidence)

	planned, err := planner.NewPlanner(llm).Plan(ctx, naturalLanguage, contracts, routed.Intent, routed.Resources)
	if err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return printJSON(map[string]interface{}{
				"success":    false,
				"error_type": string(verr.ErrorType),
				"error":      verr.Message,
			})
		}
		return err
	}

	if verr := validator.Validate(planned.DSL, contracts, role); verr != nil {
		return printJSON(map[string]interface{}{
			"success":    false,
			"error_type": string(verr.ErrorType),
			"error":      verr.Message,
		})
	}

	db, err := deps.OpenDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	result, err := executor.New(db).Execute(ctx, planned.DSL, contracts)
	if err != nil {
		var execErr *executor.ExecError
		if errors.As(err, &execErr) {
			return printJSON(map[string]interface{}{
				"success":    false,
				"error_type": string(execErr.Kind),
				"error":      execErr.Message,
			})
		}
		return err
	}

	return printJSON(map[string]interface{}{
		"success":     true,
		"fingerprint": planned.Fingerprint,
		"data":        result.Data,
		"count":       result.Count,
		"page_info":   result.PageInfo,
	})
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
