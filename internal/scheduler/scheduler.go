package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/event-finder/internal/metrics"
)

// Pinger is the part of the store the watchdog needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scheduler periodically pings the store and logs connectivity changes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Pinger
	interval  time.Duration
	metrics   *metrics.Metrics
	log       *zap.Logger

	mu        sync.Mutex
	connected *bool
}

// New creates a new Scheduler.
func New(store Pinger, interval time.Duration, m *metrics.Metrics, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		store:     store,
		interval:  interval,
		metrics:   m,
		log:       log.Named("watchdog"),
	}
}

// Start schedules the periodic ping and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval/2+time.Second)
		defer cancel()
		s.check(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// check pings the store once and logs only state transitions and errors.
func (s *Scheduler) check(ctx context.Context) {
	err := s.store.Ping(ctx)
	up := err == nil
	s.metrics.SetStoreUp(up)

	s.mu.Lock()
	changed := s.connected == nil || *s.connected != up
	s.connected = &up
	s.mu.Unlock()

	if err != nil {
		s.log.Error("Store ping failed", zap.Error(err))
	}
	if !changed {
		return
	}
	if up {
		s.log.Info("Connected to DB")
	} else {
		s.log.Warn("Disconnected from DB")
	}
}

// Connected reports the result of the last ping, false before the first one.
func (s *Scheduler) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected != nil && *s.connected
}
