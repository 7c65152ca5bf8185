// Package retention deletes stored verdicts once they age past a configured window,
// either on demand or on a cron schedule.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pubcheck/internal/store"
)

// Pruner enforces the verdict retention window on a store.
type Pruner struct {
	store  store.Store
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner returns a pruner deleting verdicts older than maxAge. A zero maxAge
// keeps verdicts forever.
func NewPruner(s store.Store, maxAge time.Duration) *Pruner {
	return &Pruner{
		store:  s,
		maxAge: maxAge,
		logger: slog.Default().With("component", "store.retention"),
		now:    time.Now,
	}
}

func (p *Pruner) MaxAge() time.Duration {
	return p.maxAge
}

// Cutoff returns the instant before which verdicts are deleted.
func (p *Pruner) Cutoff() time.Time {
	return p.now().Add(-p.maxAge)
}

// Prune deletes every verdict evaluated before Cutoff and returns how many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.store == nil {
		return 0, errors.New("retention: no store configured")
	}
	if p.maxAge < 0 {
		return 0, fmt.Errorf("retention: negative max age %s", p.maxAge)
	}
	if p.maxAge == 0 {
		p.logger.Debug("retention disabled, nothing pruned")
		return 0, nil
	}

	cutoff := p.Cutoff()
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune verdicts before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted == 0 {
		p.logger.Debug("no verdicts pruned", "cutoff", cutoff)
	} else {
		p.logger.Info("pruned verdicts", "deleted_count", deleted, "max_age", p.maxAge)
	}
	return deleted, nil
}
