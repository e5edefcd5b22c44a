// Package testing switches the process into test mode for black-box tests.
// Import it for its side effect.
package testing

import "os"

func init() {
	_ = os.Setenv("ROLEGATE_TEST_MODE", "1")
	if os.Getenv("LOG_FORMAT") == "" {
		_ = os.Setenv("LOG_FORMAT", "json")
	}
}
