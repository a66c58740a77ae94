package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/kanso/agent"
	"github.com/c360studio/kanso/llm"
	"github.com/c360studio/kanso/research"
)

func planCommand() *cobra.Command {
	var (
		contextText  string
		attachPaths  []string
		outputPath   string
		noResearch   bool
		skipAnalysis bool
	)

	cmd := &cobra.Command{
		Use:   "plan \"topic\"",
		Short: "Generate a project plan for a topic",
		Long: `Generate a scheduled project plan for a free-text topic.

The analyst first checks whether the topic carries enough information to
plan against; if not, clarifying questions are printed and no plan is
generated. Progress is reported on stderr, the plan JSON on stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			return runPlan(cmd.Context(), topic, contextText, attachPaths, outputPath, noResearch, skipAnalysis)
		},
	}

	cmd.Flags().StringVar(&contextText, "context", "", "Additional planning context")
	cmd.Flags().StringArrayVar(&attachPaths, "attach", nil, "File to attach as planning context (repeatable)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the plan JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&noResearch, "no-research", false, "Skip URL-based research")
	cmd.Flags().BoolVar(&skipAnalysis, "skip-analysis", false, "Skip the plannability check")

	return cmd
}

func runPlan(ctx context.Context, topic, contextText string, attachPaths []string, outputPath string, noResearch, skipAnalysis bool) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	registry, err := buildModelRegistry(cfg)
	if err != nil {
		return err
	}

	client := llm.NewClient(registry, llm.WithLogger(slog.Default()))

	opts := []agent.PipelineOption{
		agent.WithStatusSink(&agent.ConsoleSink{W: os.Stderr}),
		agent.WithLogger(slog.Default()),
		agent.WithGateIterations(cfg.Planner.GateIterations),
		agent.WithMergeThreshold(cfg.Planner.MergeThreshold),
	}
	if cfg.Model.Temperature > 0 {
		opts = append(opts, agent.WithDefaultTemperature(cfg.Model.Temperature))
	}
	if cfg.Research.Enabled && !noResearch {
		opts = append(opts, agent.WithResearcher(research.NewAgent(
			research.WithLogger(slog.Default()),
			research.WithMaxSources(cfg.Research.MaxSources),
			research.WithFetchTimeout(cfg.Research.FetchTimeout),
		)))
	}

	pipeline := agent.NewPipeline(client, opts...)

	if !skipAnalysis {
		clarification, err := pipeline.Analyze(ctx, topic, nil)
		if err != nil {
			return fmt.Errorf("analyze request: %w", err)
		}
		if clarification.NeedsClarification {
			fmt.Fprintln(os.Stderr, "The request needs clarification before planning:")
			for _, q := range clarification.Questions {
				fmt.Fprintf(os.Stderr, "  - %s\n", q)
			}
			return fmt.Errorf("request needs clarification")
		}
	}

	attachments, err := readAttachments(attachPaths)
	if err != nil {
		return err
	}

	project, err := pipeline.GeneratePlan(ctx, agent.Request{
		Topic:       topic,
		Context:     contextText,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("generate plan: %w", err)
	}

	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	data = append(data, '\n')

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", outputPath)
		return nil
	}

	_, err = os.Stdout.Write(data)
	return err
}

func readAttachments(paths []string) ([]agent.Attachment, error) {
	attachments := make([]agent.Attachment, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		attachments = append(attachments, agent.Attachment{
			Name:    filepath.Base(path),
			Content: string(data),
		})
	}
	return attachments, nil
}
