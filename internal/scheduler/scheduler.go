package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
)

// Refresher is the part of the facade the scheduler drives.
type Refresher interface {
	EvictAndRefresh(ctx context.Context, domain cache.Domain, key string) error
	Warm(ctx context.Context) error
}

// Config controls which jobs are registered.
type Config struct {
	// Location is the time zone the cron expression is evaluated in.
	Location *time.Location
	// ExchangeCron refreshes Currency after the daily publication.
	// Empty disables the job.
	ExchangeCron string
	Currency     string
	// WarmInterval re-fetches weather periodically; 0 disables the job.
	WarmInterval time.Duration
	// JobTimeout bounds a single job run.
	JobTimeout time.Duration
}

// Scheduler triggers out-of-band cache refreshes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	cfg       Config
	log       logrus.FieldLogger
}

// New creates a new Scheduler.
func New(cfg Config, target Refresher, log logrus.FieldLogger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}

	s := gocron.NewScheduler(cfg.Location)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		target:    target,
		cfg:       cfg,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start registers the configured jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cfg.ExchangeCron != "" {
		if _, err := s.scheduler.Cron(s.cfg.ExchangeCron).Do(s.refreshExchange); err != nil {
			return fmt.Errorf("schedule exchange refresh %q: %w", s.cfg.ExchangeCron, err)
		}
	}
	if s.cfg.WarmInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.WarmInterval).Do(s.warm); err != nil {
			return fmt.Errorf("schedule weather warm-up: %w", err)
		}
	}

	if len(s.scheduler.Jobs()) == 0 {
		s.log.Info("no jobs configured; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	s.log.WithField("jobs", len(s.scheduler.Jobs())).Info("scheduler started")
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil && s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refreshExchange() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"job": "exchange-refresh", "key": s.cfg.Currency})
	if err := s.target.EvictAndRefresh(ctx, cache.DomainExchange, s.cfg.Currency); err != nil {
		log.WithError(err).Error("scheduled exchange refresh failed")
		return
	}
	log.Info("scheduled exchange refresh completed")
}

func (s *Scheduler) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	log := s.log.WithField("job", "weather-warm")
	if err := s.target.Warm(ctx); err != nil {
		log.WithError(err).Warn("weather warm-up failed")
		return
	}
	log.Debug("weather warm-up completed")
}
