package app

import (
	"os"
	"sync/atomic"
)

// TestModeEnv set to "1" makes the binaries return before opening any connection.
const TestModeEnv = "BACKOFFICE_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether the binaries should skip runtime side effects.
func InTestMode() bool {
	if on := testMode.Load(); on != nil {
		return *on
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads TestModeEnv and returns the new value.
func RefreshTestMode() bool {
	on := os.Getenv(TestModeEnv) == "1"
	testMode.Store(&on)
	return on
}
