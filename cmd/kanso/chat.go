package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/kanso/agent"
	"github.com/c360studio/kanso/llm"
	"github.com/c360studio/kanso/plan"
)

func chatCommand() *cobra.Command {
	var (
		planPath   string
		outputPath string
		write      bool
	)

	cmd := &cobra.Command{
		Use:   "chat --plan plan.json \"message\"",
		Short: "Refine an existing plan conversationally",
		Long: `Send a message about an existing plan: ask questions or request
changes. The reply is printed on stderr; when the plan changes, the
updated plan JSON goes to stdout (or back to the plan file with --write).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}

			registry, err := buildModelRegistry(cfg)
			if err != nil {
				return err
			}

			project, err := loadProject(planPath)
			if err != nil {
				return err
			}

			client := llm.NewClient(registry, llm.WithLogger(slog.Default()))
			pipeline := agent.NewPipeline(client,
				agent.WithLogger(slog.Default()),
				agent.WithMergeThreshold(cfg.Planner.MergeThreshold),
			)

			result, err := pipeline.Refine(cmd.Context(), project, message, nil)
			if err != nil {
				return fmt.Errorf("refine plan: %w", err)
			}

			fmt.Fprintln(os.Stderr, result.Reply)

			if !result.Updated {
				return nil
			}

			data, err := json.MarshalIndent(result.Project, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal plan: %w", err)
			}
			data = append(data, '\n')

			dest := outputPath
			if write && dest == "" {
				dest = planPath
			}
			if dest != "" {
				if err := os.WriteFile(dest, data, 0644); err != nil {
					return fmt.Errorf("write plan: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Updated plan written to %s\n", dest)
				return nil
			}

			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan JSON file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the updated plan to a file")
	cmd.Flags().BoolVar(&write, "write", false, "Write the updated plan back to the plan file")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func loadProject(path string) (*plan.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var project plan.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return &project, nil
}
