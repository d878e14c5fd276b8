package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/taskcortex/internal/extractor"
	"github.com/taskcortex/internal/sanitize"
	"github.com/taskcortex/pkg/models"
)

// ExtractCommand returns the extract command
func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract structured parameters from a task description",
		ArgsUsage: "DESCRIPTION",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "template",
				Usage: "Template id whose parameter schema guides extraction",
			},
			&cli.StringFlag{
				Name:  "base-params",
				Usage: "JSON object of caller-supplied base parameters",
			},
		},
		Action: runExtract,
	}
}

func runExtract(c *cli.Context) error {
	description := c.Args().First()
	if description == "" {
		return fmt.Errorf("a task description is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var baseParams map[string]interface{}
	if raw := c.String("base-params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &baseParams); err != nil {
			return fmt.Errorf("invalid base-params JSON: %w", err)
		}
	}

	var schema *models.ParameterSchema
	if templateID := c.String("template"); templateID != "" {
		store, cleanup, err := buildStore(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("failed to open template store: %w", err)
		}
		defer cleanup()

		tmpl, err := store.GetTemplate(c.Context, templateID)
		if err != nil {
			return fmt.Errorf("failed to load template %s: %w", templateID, err)
		}
		schema = tmpl.Definition.ParameterSchema
	}

	client, err := buildLLMClient(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := extractor.DefaultOptions()
	opts.Temperature = cfg.LLM.Temperature
	opts.MaxOutputTokens = cfg.LLM.MaxTokens

	e := extractor.New(client, sanitize.NewHeuristic(), opts)
	res := e.Extract(c.Context, description, baseParams, schema)

	out := map[string]interface{}{
		"parameters": res.Parameters,
		"outcome":    res.Outcome,
	}
	if len(res.Warnings) > 0 {
		out["warnings"] = res.Warnings
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
