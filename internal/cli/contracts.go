package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// ContractsCommand lists the resources and fields visible to a role.
func ContractsCommand(deps *Deps) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "contracts [resource]",
		Short: "Show the contract surface for a role",
		Long: `List the resources a role may touch, or the full contract for a single
resource: fields, allowed operations, filters, ordering, and limits.

Examples:
  agent-gw contracts
  agent-gw contracts cases
  agent-gw contracts --role readonly`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contracts, err := deps.contractsForRole(role)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				c, ok := contracts[args[0]]
				if !ok {
					names := make([]string, 0, len(contracts))
					for name := range contracts {
						names = append(names, name)
					}
					sort.Strings(names)
					return fmt.Errorf("unknown resource %q, available: %v", args[0], names)
				}
				return printJSON(c)
			}

			summary := make([]map[string]interface{}, 0, len(contracts))
			names := make([]string, 0, len(contracts))
			for name := range contracts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				c := contracts[name]
				pk, _ := c.PrimaryKey()
				summary = append(summary, map[string]interface{}{
					"resource":    name,
					"version":     c.Version,
					"ops_allowed": c.OpsAllowed,
					"primary_key": pk,
					"fields":      len(c.Fields),
				})
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role whose contracts apply (default from AGENT_GW_ROLE)")
	return cmd
}
