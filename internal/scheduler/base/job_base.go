// Package base provides base implementation for scheduler jobs.
package base

import (
	"sync"
	"time"
)

// JobBase records the outcome of the most recent run.
// Jobs embed it and call RecordRun at the end of Run.
type JobBase struct {
	mu      sync.Mutex
	lastRun time.Time
	lastErr error
	runs    int
}

// RecordRun stores the completion time and error of a run
func (j *JobBase) RecordRun(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastRun = time.Now()
	j.lastErr = err
	j.runs++
}

// LastRun returns when the job last finished and the error it returned.
// The time is zero if the job never ran.
func (j *JobBase) LastRun() (time.Time, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastErr
}

// Runs returns how many times the job has finished
func (j *JobBase) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}
