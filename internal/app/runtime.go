package app

import (
	"os"
	"sync"
)

const testModeEnv = "ROLEGATE_TEST_MODE"

// InTestMode reports whether ROLEGATE_TEST_MODE=1 was set when first asked.
// Binaries return early in that mode and the router skips request logging.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})
