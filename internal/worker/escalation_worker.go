package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Escalator re-escalates overdue tickets and reports how many it touched.
type Escalator interface {
	EscalateOverdue(ctx context.Context) (int, error)
}

// RunEscalationSweeper calls EscalateOverdue every interval until ctx is done.
// A non-positive interval disables the sweeper.
func RunEscalationSweeper(ctx context.Context, escalator Escalator, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("escalation sweeper disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("escalation sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("escalation sweeper stopped")
			return
		case <-ticker.C:
			n, err := escalator.EscalateOverdue(ctx)
			if err != nil {
				logger.Error("escalation sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("escalated overdue tickets", zap.Int("count", n))
			}
		}
	}
}
