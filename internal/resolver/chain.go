package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// step is one fallback stage. A step that returns a nil error must return a
// usable Resolution.
type step struct {
	name string
	run  func(ctx context.Context) (*Resolution, error)
}

// runChain evaluates steps in order and returns the first usable result.
// A *PredatesHistoryError stops the chain and is returned as is.
func runChain(ctx context.Context, log *zap.Logger, steps []step) (*Resolution, error) {
	var lastErr error
	for _, s := range steps {
		res, err := s.run(ctx)
		if err == nil && res != nil && res.Series.Len() > 0 {
			res.Step = s.name
			log.Info("fallback step succeeded",
				zap.String("step", s.name),
				zap.String("source", string(res.Series.Source)),
				zap.Int("data_points", res.Series.Len()),
			)
			return res, nil
		}
		var predates *PredatesHistoryError
		if errors.As(err, &predates) {
			log.Info("tweet predates available history",
				zap.String("step", s.name),
				zap.Time("tweet_time", predates.TweetTime),
				zap.Time("earliest_data", predates.EarliestData),
			)
			return nil, err
		}
		if err == nil {
			err = fmt.Errorf("step %s: empty result", s.name)
		}
		log.Warn("fallback step failed", zap.String("step", s.name), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("all fallback steps failed: %w", lastErr)
}
