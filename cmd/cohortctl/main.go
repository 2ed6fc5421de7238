package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cohortctl/internal/observability"
)

func main() {
	observability.InitLogger("cohortctl")
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("cohortctl failed")
		os.Exit(1)
	}
}
