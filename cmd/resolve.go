package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/taskcortex/internal/resolver"
	"github.com/taskcortex/pkg/models"
)

// ResolveCommand returns the resolve command
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Find a reusable task template for a description",
		ArgsUsage: "DESCRIPTION",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "intent",
				Usage: "User intent: REUSE_EXISTING_TEMPLATE or CREATE_NEW_TASK",
				Value: string(models.IntentReuseExistingTemplate),
			},
			&cli.StringFlag{
				Name:  "scope",
				Usage: "Entity scope: AUTO, SPECIFIC_ENTITY or AGGREGATE",
				Value: string(models.ScopeAuto),
			},
		},
		Action: runResolve,
	}
}

func runResolve(c *cli.Context) error {
	description := c.Args().First()
	if description == "" {
		return fmt.Errorf("a task description is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, cleanup, err := buildStore(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open template store: %w", err)
	}
	defer cleanup()

	embedder, err := buildEmbedder(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	r := resolver.New(store, embedder, resolverConfig(cfg))
	tmpl, err := r.Resolve(c.Context, models.TaskRequest{
		Description: description,
		UserIntent:  models.UserIntent(c.String("intent")),
		EntityScope: models.EntityScope(c.String("scope")),
	})
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if tmpl == nil {
		fmt.Println("No matching template; a new one should be generated.")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tmpl)
}
