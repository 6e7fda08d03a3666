package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"Recharted/internal/cache"
	"Recharted/internal/model"
	"Recharted/internal/resolver"
)

// Resolver is what the warm job needs from the market data resolver.
type Resolver interface {
	ResolveDetailed(ctx context.Context, input string, tf model.Timeframe, tweetTime time.Time) (*resolver.Resolution, error)
	PopularTokens() map[string]string
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Resolver  Resolver
	Cache     cache.Store
	Timeframe model.Timeframe
	Ctx       context.Context
	log       *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, res Resolver, store cache.Store, tf model.Timeframe, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Resolver:  res,
		Cache:     store,
		Timeframe: tf,
		Ctx:       ctx,
		log:       log.Named("scheduler"),
	}
}

// RegisterAll registers the cache warm and prune tasks.
func (s *Scheduler) RegisterAll(warmCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, func() { s.WarmNow() }); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	if _, err := s.Cron.AddFunc(pruneCron, func() { s.PruneNow() }); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// WarmNow resolves every popular alias at the default timeframe into the
// cache and returns how many were stored.
func (s *Scheduler) WarmNow() int {
	aliases := make([]string, 0, len(s.Resolver.PopularTokens()))
	for alias := range s.Resolver.PopularTokens() {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	warmed := 0
	for _, alias := range aliases {
		if s.Ctx.Err() != nil {
			break
		}
		res, err := s.Resolver.ResolveDetailed(s.Ctx, alias, s.Timeframe, time.Time{})
		if err != nil {
			s.log.Warn("warm failed", zap.String("alias", alias), zap.Error(err))
			continue
		}
		entry := &cache.Entry{
			Series:     res.Series,
			Provider:   res.Provider,
			Step:       res.Step,
			ResolvedAt: res.ResolvedAt,
		}
		if err := s.Cache.Set(s.Ctx, cache.Key(alias, s.Timeframe, time.Time{}), entry); err != nil {
			s.log.Warn("warm cache set", zap.String("alias", alias), zap.Error(err))
			continue
		}
		warmed++
	}
	s.log.Info("cache warmed", zap.Int("warmed", warmed), zap.Int("aliases", len(aliases)))
	return warmed
}

// PruneNow drops expired cache entries.
func (s *Scheduler) PruneNow() int {
	n := s.Cache.Prune(s.Ctx)
	if n > 0 {
		s.log.Debug("cache pruned", zap.Int("removed", n))
	}
	return n
}
