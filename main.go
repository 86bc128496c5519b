package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/multimodal-travel-agent/cmd"
	_ "github.com/tanpawarit/multimodal-travel-agent/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		log.Error().Err(err).Msg("travel-agent failed")
		os.Exit(1)
	}
}
