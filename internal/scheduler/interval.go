package scheduler

import (
	"context"
	"time"

	"mt5bot/internal/logger"
)

// IntervalScheduler runs a task on a fixed period until the context is
// cancelled. The task runs once immediately, then on every tick; the trading
// loop hangs off one of these.
type IntervalScheduler struct {
	Interval time.Duration

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Interval: interval, ctx: ctx, nowFn: time.Now}
}

func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	logger.Infof("IntervalScheduler: started interval=%s at=%s",
		s.Interval, s.nowFn().UTC().Format(time.RFC3339))

	task()
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-ticker.C:
			task()
		}
	}
}
