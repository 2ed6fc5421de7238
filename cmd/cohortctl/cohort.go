package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/cohortctl/internal/codec"
	"github.com/danmuck/cohortctl/internal/ingest"
	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
	"github.com/danmuck/cohortctl/internal/report"
	"github.com/danmuck/cohortctl/internal/server"
	"github.com/danmuck/cohortctl/internal/store"
)

func (a *app) readBinary(path string) (*record.Cohort, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return codec.ReadFileWithLimits(path, cfg.Limits())
}

func (a *app) encodeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <input>",
		Short: "Ingest a text file and write the binary cohort file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.Paths.Binary
			}
			c, rep, err := ingest.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := codec.WriteFileWithLimits(output, c, cfg.Limits()); err != nil {
				return fmt.Errorf("save cohort: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d students to %s (%d lines dropped)\n", c.Len(), output, rep.Dropped())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "binary output file (default paths.binary)")
	return cmd
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <bin>",
		Short: "Print every record stored in a binary cohort file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.readBinary(args[0])
			if err != nil {
				return err
			}
			return report.PrintCohort(cmd.OutOrStdout(), c)
		},
	}
}

func (a *app) topCmd() *cobra.Command {
	var (
		course  string
		limit   int
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "top <bin>",
		Short: "Rank students overall or within one course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			if limit == 0 {
				limit = cfg.Ranking.TopLimit
				if course != "" {
					limit = cfg.Ranking.CourseLimit
				}
			}
			c, err := a.readBinary(args[0])
			if err != nil {
				return err
			}
			rows, err := rank.Standings(c, course, limit)
			if err != nil {
				return err
			}

			title := report.TopTitle(len(rows))
			if course != "" {
				title = report.CourseTitle(len(rows), course)
			}
			if err := report.PrintStandings(cmd.OutOrStdout(), title, rows); err != nil {
				return err
			}
			if csvPath != "" {
				return report.WriteCsvFile(csvPath, course, rows)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "rank by this course instead of the general average")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of students (default ranking.top_limit or ranking.course_limit)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the ranking as CSV")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export <bin>",
		Short: "Copy a binary cohort file into a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Export.SQLite
			}
			c, err := a.readBinary(args[0])
			if err != nil {
				return err
			}
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runID, err := db.Export(c, "", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d students to %s as run %s\n", c.Len(), dbPath, runID)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "sqlite", "", "SQLite database file (default export.sqlite)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <bin>",
		Short: "Serve a binary cohort file over a read-only HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			c, err := a.readBinary(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.New("cohortctl", c, server.Options{
				Addr:        addr,
				CorsOrigins: cfg.Server.CorsOrigins,
				TopLimit:    cfg.Ranking.TopLimit,
				CourseLimit: cfg.Ranking.CourseLimit,
			})
			if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("serve: stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
