package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/store"
)

// HTTPLogPruner periodically deletes request log rows older than a
// configurable retention period. It runs as a background goroutine and is
// stopped via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type HTTPLogPruner struct {
	store     store.HTTPLogStore
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewHTTPLogPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of request history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

// NewHTTPLogPruner creates a pruner but does not start it.
func NewHTTPLogPruner(s store.HTTPLogStore, cfg PrunerConfig, logger *zap.Logger) *HTTPLogPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPLogPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger.Named("pruner"),
		done:      make(chan struct{}),
	}
}

// Start runs an immediate prune, then repeats on the configured interval
// until ctx is cancelled or Stop is called.
func (p *HTTPLogPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("http log pruner disabled", zap.Int("retention_days", 0))
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Info("http log pruner started",
		zap.Duration("retention", p.retention),
		zap.Duration("interval", p.interval),
	)
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *HTTPLogPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *HTTPLogPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *HTTPLogPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("http log prune failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("http log pruned",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
