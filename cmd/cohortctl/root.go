package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/cohortctl/internal/config"
	"github.com/danmuck/cohortctl/internal/logging"
)

type app struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cohortctl",
		Short: "Ingest, persist and rank student cohorts",
		Long: `cohortctl reads a sectioned student/course/grade text file, stores the
resulting cohort in a compact binary file and answers ranking queries over it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logLevel != "" && !logging.SetLevel(a.logLevel) {
				return fmt.Errorf("unknown log level %q", a.logLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./"+config.DefaultPath+" when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		a.runCmd(),
		a.encodeCmd(),
		a.dumpCmd(),
		a.topCmd(),
		a.exportCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

// config resolves --config, then ./cohortctl.toml, then the built-in
// defaults.
func (a *app) config() (config.Config, error) {
	path := a.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("stat %s: %w", config.DefaultPath, err)
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
