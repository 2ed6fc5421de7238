package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/cohortctl/internal/codec"
	"github.com/danmuck/cohortctl/internal/config"
	"github.com/danmuck/cohortctl/internal/ingest"
	"github.com/danmuck/cohortctl/internal/observability"
	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
	"github.com/danmuck/cohortctl/internal/report"
)

func (a *app) runCmd() *cobra.Command {
	var metricsFile string
	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Ingest a text file, save it, read it back and print rankings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			logger := log.With().Str("run", runID).Logger()

			c, rep, err := ingest.LoadFile(args[0])
			if err != nil {
				return err
			}
			logger.Info().
				Str("input", args[0]).
				Int("students", c.Len()).
				Int("dropped", rep.Dropped()).
				Msg("run: ingested")

			if err := codec.WriteFileWithLimits(cfg.Paths.Binary, c, cfg.Limits()); err != nil {
				return fmt.Errorf("save cohort: %w", err)
			}
			restored, err := codec.ReadFileWithLimits(cfg.Paths.Binary, cfg.Limits())
			if err != nil {
				return fmt.Errorf("reload cohort: %w", err)
			}
			logger.Info().Str("binary", cfg.Paths.Binary).Int("students", restored.Len()).Msg("run: round trip complete")

			out := cmd.OutOrStdout()
			if err := report.PrintCohort(out, restored); err != nil {
				return err
			}
			if err := printRankings(out, restored, cfg.Ranking); err != nil {
				return err
			}

			if metricsFile != "" {
				if err := observability.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics %s: %w", metricsFile, err)
				}
				logger.Debug().Str("path", metricsFile).Msg("run: metrics written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus text metrics to this file")
	return cmd
}

// printRankings prints the overall top list and one list per configured
// course. A course nobody takes prints "no data" rather than failing.
func printRankings(w io.Writer, c *record.Cohort, cfg config.RankingConfig) error {
	fmt.Fprintln(w)
	top, err := rank.Standings(c, "", cfg.TopLimit)
	if err != nil {
		return err
	}
	if err := report.PrintStandings(w, report.TopTitle(len(top)), top); err != nil {
		return err
	}

	for _, course := range cfg.Courses {
		rows, err := rank.Standings(c, course, cfg.CourseLimit)
		if err != nil && !errors.Is(err, rank.ErrCourseNotFound) {
			return err
		}
		if err != nil {
			log.Warn().Str("course", course).Msg("run: no student takes course")
		}
		if err := report.PrintStandings(w, report.CourseTitle(len(rows), course), rows); err != nil {
			return err
		}
	}
	return nil
}
