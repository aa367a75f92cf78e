package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// SweepService runs the periodic maintenance passes: overdue loan
// detection, reservation expiry, and expiry warnings.
type SweepService struct {
	engine   *AllocationEngine
	cron     *cron.Cron
	schedule string
}

// NewSweepService creates the sweep runner. schedule is a cron spec,
// e.g. "@every 1m".
func NewSweepService(engine *AllocationEngine, schedule string) *SweepService {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &SweepService{
		engine:   engine,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *SweepService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 Sweep service started (schedule %s)", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Sweep service stopped")
}

// RunOnce executes a single sweep pass immediately.
func (s *SweepService) RunOnce(ctx context.Context) {
	if n, err := s.engine.EmitOverdueEvents(ctx); err != nil {
		log.Printf("❌ Overdue sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("⏰ Overdue sweep: %d loan(s) flagged", n)
	}
	if n, err := s.engine.ExpireReservations(ctx); err != nil {
		log.Printf("❌ Expiry sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("⏰ Expiry sweep: %d reservation(s) expired", n)
	}
	if n, err := s.engine.EmitExpiryWarnings(ctx); err != nil {
		log.Printf("❌ Warning sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("⏰ Warning sweep: %d reservation(s) warned", n)
	}
}

func (s *SweepService) runOnce() {
	s.RunOnce(context.Background())
}
