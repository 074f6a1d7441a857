package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/mtzgroup/tcpb-client/internal/logging"
)

func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	log := logging.New("test")
	log.Info().Str("test", t.Name()).Send()
	return log
}
