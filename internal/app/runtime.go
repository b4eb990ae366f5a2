package app

import (
	"os"
	"strconv"
)

// TestModeEnv names the variable test binaries set to keep runtime wiring
// away from Redis, PostgreSQL and listening sockets.
const TestModeEnv = "LOGISTOCK_TEST_MODE"

// InTestMode reports whether LOGISTOCK_TEST_MODE holds a true boolean.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}
