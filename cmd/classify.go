package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/taskcortex/internal/autorepair"
	"github.com/taskcortex/pkg/models"
)

// ClassifyCommand returns the classify command
func ClassifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Decide whether a failed execution is eligible for auto-repair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "error-name",
				Usage: "Error type name (e.g. TypeError)",
			},
			&cli.StringFlag{
				Name:  "error-message",
				Usage: "Error message",
			},
			&cli.StringFlag{
				Name:  "error-stack",
				Usage: "Error stack trace",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "Template id whose repair history applies",
			},
			&cli.BoolFlag{
				Name:  "record-attempt",
				Usage: "Atomically count this repair attempt against the template's budget",
			},
		},
		Action: runClassify,
	}
}

func runClassify(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var tmpl *models.Template
	if templateID := c.String("template"); templateID != "" {
		store, cleanup, err := buildStore(c.Context, cfg)
		if err != nil {
			return fmt.Errorf("failed to open template store: %w", err)
		}
		defer cleanup()

		tmpl, err = store.GetTemplate(c.Context, templateID)
		if err != nil {
			return fmt.Errorf("failed to load template %s: %w", templateID, err)
		}

		if c.Bool("record-attempt") {
			attempts, err := store.IncrementRepairAttempts(c.Context, templateID)
			if err != nil {
				return fmt.Errorf("failed to record repair attempt: %w", err)
			}
			tmpl.RepairAttempts = attempts
		}
	}

	classifier := autorepair.New(cfg.Repair.MaxAttempts)
	decision := classifier.ShouldRepair(models.ExecutionError{
		Name:    c.String("error-name"),
		Message: c.String("error-message"),
		Stack:   c.String("error-stack"),
	}, tmpl)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}
