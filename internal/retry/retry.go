// Where: internal/retry/retry.go
// What: Fixed-delay retry combinator.
// Why: One retry loop shared by installers and package index refreshes.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Sleep is swappable for tests.
var Sleep = time.Sleep

// Do invokes fn up to attempts times, sleeping delay between failures.
// It returns nil on the first success. After the last failure it returns
// that failure wrapped with the attempt count. Context cancellation is
// checked between attempts and aborts immediately.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = fn(); last == nil {
			return nil
		}
		if i < attempts-1 {
			Sleep(delay)
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, last)
}
