// Package guard switches the binaries into test mode when a test imports it.
package guard

import (
	"os"

	"github.com/comptoir/backoffice/internal/app"
)

func init() {
	if os.Getenv(app.TestModeEnv) == "" {
		_ = os.Setenv(app.TestModeEnv, "1")
	}
	app.RefreshTestMode()
}
