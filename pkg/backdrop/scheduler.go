package backdrop

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/dovenav/dove/util/log"
)

// Scheduler drives automatic rotation from a single repeating job. An
// interval of zero removes the job entirely; manual swaps are unaffected.
type Scheduler struct {
	mu     sync.Mutex
	sched  gocron.Scheduler
	jobID  uuid.UUID
	hasJob bool
	tick   func()
}

// NewScheduler creates and starts a scheduler with no job. Each tick of the
// rotation job, once scheduled, calls tick.
func NewScheduler(tick func()) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	s.Start()
	return &Scheduler{sched: s, tick: tick}, nil
}

// Reschedule replaces the rotation job with one firing every seconds
// seconds. Zero or negative disables rotation.
func (s *Scheduler) Reschedule(seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasJob {
		if err := s.sched.RemoveJob(s.jobID); err != nil {
			log.Printf("Failed to remove rotation job: %v", err)
		}
		s.hasJob = false
	}
	if seconds <= IntervalDisabled {
		log.Print("Backdrop rotation disabled")
		return nil
	}

	job, err := s.sched.NewJob(
		gocron.DurationJob(time.Duration(seconds)*time.Second),
		gocron.NewTask(s.tick),
		gocron.WithName("backdrop-rotation"),
	)
	if err != nil {
		return err
	}
	s.jobID = job.ID()
	s.hasJob = true
	log.Printf("Backdrop rotation scheduled every %ds", seconds)
	return nil
}

// Shutdown stops the scheduler and removes its job.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
