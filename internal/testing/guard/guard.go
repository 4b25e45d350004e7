// Package guard forces test mode for packages that import it, so tests
// can never trip runtime side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WFADMIN_TEST_MODE") == "" {
			_ = os.Setenv("WFADMIN_TEST_MODE", "1")
		}
	})
}
