package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/collector"
	"Recharted/internal/model"
	"Recharted/internal/resolver"
)

// DefaultAlertInterval throttles repeated alerts of the same kind.
const DefaultAlertInterval = 15 * time.Minute

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Alerter forwards degraded resolutions to a chat, at most once per
// interval for each kind of degradation.
type Alerter struct {
	sender   retrySender
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewAlerter creates an alerter. interval <= 0 uses DefaultAlertInterval.
func NewAlerter(sender retrySender, interval time.Duration, log *zap.Logger) *Alerter {
	if interval <= 0 {
		interval = DefaultAlertInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Alerter{
		sender:   sender,
		interval: interval,
		log:      log,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Observe sends an alert for res if it is degraded and not throttled.
// It reports whether an alert was sent.
func (a *Alerter) Observe(ctx context.Context, input string, tf model.Timeframe, res *resolver.Resolution) bool {
	if !Degraded(res) {
		return false
	}
	kind := res.Step
	if errors.Is(res.PrimaryErr, collector.ErrUnauthorized) {
		kind = "unauthorized"
	}

	a.mu.Lock()
	now := a.now()
	if last, ok := a.last[kind]; ok && now.Sub(last) < a.interval {
		a.mu.Unlock()
		return false
	}
	a.last[kind] = now
	a.mu.Unlock()

	if err := a.sender.SendWithRetry(ctx, FormatDegradation(input, tf, res), 3); err != nil {
		a.log.Error("send degradation alert", zap.String("kind", kind), zap.Error(err))
		return false
	}
	return true
}
