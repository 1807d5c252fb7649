package session

import (
	"context"
	"time"
)

// StartAutoSave runs the periodic autosave loop until Stop is called
// or the context is cancelled. The tick interval defaults to 30s via
// configuration.
func (c *Controller) StartAutoSave(ctx context.Context, interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.AutoSaveTick()
			}
		}
	}()
	c.logger.Info("autosave started")
}

// Stop stops the autosave loop and waits for it to finish. A final
// tick flushes whatever the session captured last.
func (c *Controller) Stop() {
	c.stopped.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
	c.AutoSaveTick()
	c.logger.Info("autosave stopped")
}
