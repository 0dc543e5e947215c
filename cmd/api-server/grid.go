package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/config"
	"github.com/hackgods/facility-scheduling-core/internal/db"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
)

func gridCmd() *cobra.Command {
	var weekOf string
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print the bookable slot grid for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := time.Now()
			if weekOf != "" {
				t, err := time.Parse(time.DateOnly, weekOf)
				if err != nil {
					return fmt.Errorf("invalid --week: %w", err)
				}
				anchor = t
			}
			week := schedule.WeekOf(anchor)
			cal := schedule.NewCalendar()

			out := cmd.OutOrStdout()
			for _, day := range schedule.Weekdays {
				times := make([]string, 0, len(cal.Grid()))
				for _, at := range cal.Grid() {
					times = append(times, at.String())
				}
				date := week.DateFor(schedule.Instant{Day: day, At: cal.Grid()[0]})
				fmt.Fprintf(out, "%-9s %s  %s\n", day, date.Format(time.DateOnly), strings.Join(times, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weekOf, "week", "", "any date (YYYY-MM-DD) in the week to print")
	return cmd
}

func auditSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-schema",
		Short: "Create the Postgres audit event table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			if cfg.PostgresDSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, poolOptions(cfg))
			if err != nil {
				return fmt.Errorf("postgres connection error: %w", err)
			}
			defer pool.Close()

			if err := audit.NewPgSink(pool).EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "event_logs table ready")
			return nil
		},
	}
}
