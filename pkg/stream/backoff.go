package stream

import "time"

// Backoff returns the delay before reconnect attempt n (0-based):
// base * 2^n, capped at maxDelay.
func Backoff(n int, base, maxDelay time.Duration) time.Duration {
	if n < 0 {
		n = 0
	}
	d := base
	for i := 0; i < n; i++ {
		if d >= maxDelay {
			return maxDelay
		}
		d *= 2
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}
