package CronJobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Heartbeat is the part of the robot monitor the checker drives.
type Heartbeat interface {
	ID() string
	CheckHeartbeat(now time.Time) bool
}

// HeartbeatChecker periodically marks silent robots offline
type HeartbeatChecker struct {
	cronScheduler *cron.Cron
	schedule      string
	monitor       Heartbeat
	now           func() time.Time
	jobID         cron.EntryID

	mu      sync.Mutex
	checks  int
	offline int
}

// NewHeartbeatChecker creates a checker for the given six field schedule
func NewHeartbeatChecker(monitor Heartbeat, schedule string) *HeartbeatChecker {
	return &HeartbeatChecker{
		cronScheduler: cron.New(cron.WithSeconds()),
		schedule:      schedule,
		monitor:       monitor,
		now:           time.Now,
	}
}

// Start initiates the heartbeat cron job
func (h *HeartbeatChecker) Start() error {
	var err error
	h.jobID, err = h.cronScheduler.AddFunc(h.schedule, h.RunCheck)
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	h.cronScheduler.Start()
	log.Printf("Heartbeat checker started for robot %s (%s)", h.monitor.ID(), h.schedule)
	return nil
}

// Stop terminates the checker and waits for a running check
func (h *HeartbeatChecker) Stop() {
	if h.cronScheduler != nil {
		<-h.cronScheduler.Stop().Done()
		log.Println("Heartbeat checker stopped")
	}
}

// UpdateSchedule changes the schedule of the checker. The running job is
// kept when the new schedule does not parse.
func (h *HeartbeatChecker) UpdateSchedule(schedule string) error {
	jobID, err := h.cronScheduler.AddFunc(schedule, h.RunCheck)
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	h.cronScheduler.Remove(h.jobID)
	h.jobID = jobID
	h.schedule = schedule

	log.Printf("Heartbeat schedule updated to: %s\n", schedule)
	return nil
}

// RunCheck executes one check immediately
func (h *HeartbeatChecker) RunCheck() {
	wentOffline := h.monitor.CheckHeartbeat(h.now())

	h.mu.Lock()
	h.checks++
	if wentOffline {
		h.offline++
	}
	h.mu.Unlock()

	if wentOffline {
		log.Printf("Robot %s went offline", h.monitor.ID())
	}
}

// Stats returns how many checks ran and how many found the robot gone silent
func (h *HeartbeatChecker) Stats() (checks, offline int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checks, h.offline
}
