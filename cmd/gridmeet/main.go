// Command gridmeet runs the multipoint video conferencing server.
//
// Grounded on the teacher's cmd/helix/main.go and cmd/hydra/main.go
// entrypoint shape: a single main() delegating to a cobra root command.
package main

import (
	"github.com/rs/zerolog/log"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("gridmeet exited with error")
	}
}
