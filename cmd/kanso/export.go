package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/kanso/export"
)

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a plan to external formats",
	}

	cmd.AddCommand(exportICSCommand())

	return cmd
}

func exportICSCommand() *cobra.Command {
	var (
		planPath        string
		startDate       string
		hoursPerDay     float64
		includeWeekends bool
		outputPath      string
	)

	cmd := &cobra.Command{
		Use:   "ics --plan plan.json",
		Short: "Export a plan as an iCalendar file",
		Long: `Render a scheduled plan as an ICS file importable into Google
Calendar, Outlook, or Apple Calendar. Task offsets and durations are
working days mapped onto calendar time from the start date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := loadProject(planPath)
			if err != nil {
				return err
			}

			opts := export.Options{
				HoursPerDay:     hoursPerDay,
				IncludeWeekends: includeWeekends,
			}
			if startDate != "" {
				start, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
				if err != nil {
					return fmt.Errorf("parse start date %q (want YYYY-MM-DD): %w", startDate, err)
				}
				opts.StartDate = start.Add(9 * time.Hour)
			}

			ics := export.GenerateICS(project, opts)

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(ics), 0644); err != nil {
					return fmt.Errorf("write calendar: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Calendar written to %s\n", outputPath)
				return nil
			}

			_, err = os.Stdout.WriteString(ics)
			return err
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan JSON file (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "Project start date, YYYY-MM-DD (default tomorrow)")
	cmd.Flags().Float64Var(&hoursPerDay, "hours-per-day", export.DefaultHoursPerDay, "Working hours per day")
	cmd.Flags().BoolVar(&includeWeekends, "include-weekends", false, "Schedule work on weekends")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the calendar to a file instead of stdout")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
