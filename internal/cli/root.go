// Package cli defines the command surface of the gateway binary. Commands
// receive their collaborators through Deps; nothing here reaches for
// globals.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"agent-gw-poc/internal/config"
	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/planner"
)

// Deps carries the wiring a command may need. OpenDB and NewClient are
// invoked lazily so that commands without a database or LLM dependency run
// without either being configured.
type Deps struct {
	Config   config.Config
	Registry *contract.Registry
	OpenDB   func() (*sqlx.DB, error)
	NewLLM   func(ctx context.Context) (planner.Client, error)
}

// DefaultDeps builds production wiring from cfg.
func DefaultDeps(cfg config.Config) (*Deps, error) {
	registry, err := contract.NewRegistryFromDir(cfg.ContractDir)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Config:   cfg,
		Registry: registry,
		OpenDB: func() (*sqlx.DB, error) {
			db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("connecting to database: %w", err)
			}
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			return db, nil
		},
		NewLLM: func(ctx context.Context) (planner.Client, error) {
			client, err := planner.NewGeminiClient(ctx, cfg.APIKey)
			if err != nil {
				return nil, err
			}
			if client == nil {
				return nil, fmt.Errorf("no API key configured, set GEMINI_API_KEY")
			}
			return client, nil
		},
	}, nil
}

// RootCommand assembles the full command tree.
func RootCommand(deps *Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "agent-gw",
		Short:         "Natural-language gateway over contract-guarded database resources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		QueryCommand(deps),
		ExecuteCommand(deps),
		ValidateCommand(deps),
		ContractsCommand(deps),
	)
	return root
}

func contextWithTimeout(cmd *cobra.Command, deps *Deps) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), deps.Config.CommandTimeout)
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (d *Deps) contractsForRole(role string) (map[string]*contract.ResourceContract, error) {
	if role == "" {
		role = d.Config.Role
	}
	contracts, ok := d.Registry.ForRole(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q, known roles: %v", role, d.Registry.Roles())
	}
	return contracts, nil
}
