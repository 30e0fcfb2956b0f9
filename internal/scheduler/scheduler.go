// Package scheduler provides cron-based scheduling for LifeSync Core.
//
// It drives low-frequency recurring work such as the contribution-API poll,
// using standard 5-field cron expressions.
package scheduler

import (
	"github.com/robfig/cron/v3"
)

// JobID identifies a scheduled job for later removal.
type JobID = cron.EntryID

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns the job's ID, or an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) (JobID, error) {
	return s.cron.AddFunc(expr, task)
}

// RemoveJob cancels a previously scheduled job.
func (s *Scheduler) RemoveJob(id JobID) {
	s.cron.Remove(id)
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
