package cli

import (
	"github.com/spf13/cobra"

	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/validator"
)

// ValidateCommand checks a DSL plan against a role's contracts without
// touching the database.
func ValidateCommand(deps *Deps) *cobra.Command {
	var (
		role string
		file string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a DSL plan against a role's contracts",
		Long: `Read a DSL plan as JSON and report the validation verdict. No database
or LLM access is needed.

Examples:
  agent-gw validate --file plan.json
  agent-gw validate --role readonly --file plan.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(file)
			if err != nil {
				return err
			}
			contracts, err := deps.contractsForRole(role)
			if err != nil {
				return err
			}

			plan, err := dsl.Decode(data)
			if err != nil {
				return printJSON(map[string]interface{}{
					"valid":      false,
					"error_type": "INVALID_QUERY",
					"error":      err.Error(),
				})
			}
			if verr := validator.Validate(plan, contracts, role); verr != nil {
				out := map[string]interface{}{
					"valid":      false,
					"error_type": string(verr.ErrorType),
					"error":      verr.Message,
				}
				if verr.Field != "" {
					out["field"] = verr.Field
				}
				if verr.Resource != "" {
					out["resource"] = verr.Resource
				}
				return printJSON(out)
			}

			fingerprint, err := dsl.Fingerprint(plan)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"valid":       true,
				"fingerprint": fingerprint,
				"resources":   plan.Resources(),
				"read_only":   plan.IsReadOnly(),
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role whose contracts apply (default from AGENT_GW_ROLE)")
	cmd.Flags().StringVar(&file, "file", "", "Path to the DSL JSON file (default stdin)")
	return cmd
}
