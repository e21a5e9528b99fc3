package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "CTI_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

// InTestMode reports whether CTI_TEST_MODE asks binaries to skip startup.
func InTestMode() bool {
	testMode.once.Do(RefreshTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads CTI_TEST_MODE.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.on.Store(on)
}
