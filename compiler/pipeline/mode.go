package pipeline

import (
	"os"
	"strings"
)

// ModeEnv is the environment variable selecting the generation mode.
const ModeEnv = "GQLBIND_MODE"

// Mode selects the outputs of a run. A run never mixes modes.
type Mode string

// Generation modes.
const (
	ModeServer Mode = "server"
	ModeClient Mode = "client"
)

// ParseMode returns the mode named by s. Anything but "client" selects
// server mode.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeClient)) {
		return ModeClient
	}
	return ModeServer
}

// ModeFromEnv reads the mode from GQLBIND_MODE.
func ModeFromEnv() Mode {
	return ParseMode(os.Getenv(ModeEnv))
}
