package repayment

import (
	"context"
	"log/slog"
	"time"
)

// RunOverdueSweep calls MarkOverdue every interval until ctx is done. A failed
// sweep is logged and retried on the next tick.
func (u *Usecase) RunOverdueSweep(ctx context.Context, every time.Duration, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "overdue_sweep")
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := u.MarkOverdue(ctx, u.now())
			switch {
			case err != nil:
				log.Error("sweep failed", "error", err)
			case n > 0:
				log.Info("installments marked late", "count", n)
			}
		}
	}
}
