package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/executor"
	"agent-gw-poc/internal/validator"
)

// ExecuteCommand validates and runs a DSL plan supplied as JSON, bypassing
// the LLM planning step.
func ExecuteCommand(deps *Deps) *cobra.Command {
	var (
		role string
		file string
	)

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Validate and execute a DSL plan from a JSON file or stdin",
		Long: `Read a DSL plan as JSON, validate it against the role's contracts, and
execute it against the database.

Examples:
  agent-gw execute --file plan.json
  cat plan.json | agent-gw execute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(file)
			if err != nil {
				return err
			}
			plan, err := dsl.Decode(data)
			if err != nil {
				return printJSON(map[string]interface{}{
					"success":    false,
					"error_type": "INVALID_QUERY",
					"error":      err.Error(),
				})
			}

			contracts, err := deps.contractsForRole(role)
			if err != nil {
				return err
			}
			if verr := validator.Validate(plan, contracts, role); verr != nil {
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

			ctx, cancel := contextWithTimeout(cmd, deps)
			defer cancel()

			result, err := executor.New(db).Execute(ctx, plan, contracts)
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
				"success":   true,
				"data":      result.Data,
				"count":     result.Count,
				"page_info": result.PageInfo,
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role whose contracts apply (default from AGENT_GW_ROLE)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the DSL JSON file (default stdin)")
	return cmd
}

func readInput(file string) ([]byte, error) {
	if file == "" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return data, nil
}
