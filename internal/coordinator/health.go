package coordinator

import (
	"context"
	"log"
	"time"
)

// DefaultRoundTimeout bounds how long a round may wait for its slowest
// partition before it is failed.
const DefaultRoundTimeout = 5 * time.Minute

// StartRoundMonitor starts a goroutine that fails rounds stuck waiting for
// a partition that died or never arrived. It stops with ctx. A
// non-positive timeout disables the monitor.
func (c *Coordinator) StartRoundMonitor(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	interval := max(min(timeout/2, 5*time.Second), time.Millisecond)
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.checkRounds(timeout)
			}
		}
	}()

	log.Printf("[COORDINATOR] Round monitor started (timeout: %v)", timeout)
}

// checkRounds fails every round older than timeout
func (c *Coordinator) checkRounds(timeout time.Duration) {
	if n := c.rv.Expire(timeout); n > 0 {
		log.Printf("[COORDINATOR] Failed %d round(s) waiting longer than %v", n, timeout)
	}
}
