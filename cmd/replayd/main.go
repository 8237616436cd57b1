package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

var version = "dev" //nolint:gochecknoglobals // set via -ldflags

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("replayd failed")
	}
}
