package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CTI_TEST_MODE", "1")
		if os.Getenv("THREAT_API_URL") == "" {
			_ = os.Setenv("THREAT_API_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("OTEL_ENDPOINT") != "" {
			_ = os.Unsetenv("OTEL_ENDPOINT")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
