// Package testing switches the application into test mode when imported by
// test binaries, so runtime wiring skips Redis and PostgreSQL.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LOGISTOCK_TEST_MODE", "1")
		_ = os.Unsetenv("REDIS_ADDR")
		_ = os.Unsetenv("PG_DSN")
		_ = os.Unsetenv("APP_TOKEN_HASH")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
