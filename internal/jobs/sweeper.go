// Package jobs hosts the background sweeper that enforces queue and match
// TTLs: waiting queue entries are expired and stale active matches are
// force-drawn with full refunds.
package jobs

import (
	"context"
	"log"
	"time"

	"codeduel/internal/config"
	"codeduel/internal/service"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper periodically expires stale queue entries and force-draws stale
// matches
type Sweeper struct {
	matchmaking *service.MatchmakingService
	matches     *service.MatchService
	cfg         config.MatchmakingConfig
	sched       gocron.Scheduler
}

// NewSweeper creates a sweeper over the matchmaking and match services
func NewSweeper(matchmaking *service.MatchmakingService, matches *service.MatchService, cfg config.MatchmakingConfig) *Sweeper {
	return &Sweeper{
		matchmaking: matchmaking,
		matches:     matches,
		cfg:         cfg,
	}
}

// Start launches the sweep schedule
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.sched = sched

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.SweepInterval),
		gocron.NewTask(s.sweep),
	)
	if err != nil {
		return err
	}

	sched.Start()
	log.Printf("🧹 Sweeper started (interval: %v, queue TTL: %v, match TTL: %v)",
		s.cfg.SweepInterval, s.cfg.QueueTTL, s.cfg.MatchTTL)
	return nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.matchmaking.ExpireStaleQueueEntries(ctx, s.cfg.QueueTTL)
	if err != nil {
		log.Printf("❌ Queue sweep failed: %v", err)
	} else if expired > 0 {
		log.Printf("🧹 Expired %d stale queue entries", expired)
	}

	drawn, err := s.matches.ExpireStaleMatches(ctx, s.cfg.MatchTTL)
	if err != nil {
		log.Printf("❌ Match sweep failed: %v", err)
	} else if drawn > 0 {
		log.Printf("🧹 Force-drew %d stale matches", drawn)
	}
}

// Stop shuts the schedule down
func (s *Sweeper) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}
