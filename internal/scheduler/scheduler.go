package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
)

// Warmer preloads the lookups for one address.
type Warmer interface {
	Warm(ctx context.Context, address string) error
}

// Scheduler periodically re-warms the geocoding and data-layers caches for
// configured addresses.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	addresses []string
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(addresses []string, interval time.Duration, warmer Warmer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		addresses: addresses,
		interval:  interval,
		timeout:   30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.addresses) == 0 {
		log.Info("scheduler: no warm addresses configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Info("scheduler: warming caches", zap.Int("addresses", len(s.addresses)))

	var wg sync.WaitGroup
	for _, addr := range s.addresses {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.warmer.Warm(ctx, addr); err != nil {
				log.Warn("scheduler: warm failed", zap.String("address", addr), zap.Error(err))
			}
		}()
	}
	wg.Wait()
	log.Info("scheduler: completed warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
