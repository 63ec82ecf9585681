package recorder

import (
	"sync"
)

// Registry - ordered collection of in-flight jobs.
// Several jobs of the same channel are allowed.
type Registry struct {
	jobs  []*Job
	mutex sync.RWMutex
}

// NewRegistry - constructor
func NewRegistry() *Registry {
	return &Registry{jobs: make([]*Job, 0)}
}

// Add - appends job
func (r *Registry) Add(job *Job) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.jobs = append(r.jobs, job)
}

// Jobs - returns snapshot of registered jobs in insertion order
func (r *Registry) Jobs() []*Job {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return append([]*Job(nil), r.jobs...)
}

// JobsOf - returns snapshot of jobs of given channel
func (r *Registry) JobsOf(channel string) []*Job {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Job, 0)
	for _, job := range r.jobs {
		if job.Channel == channel {
			result = append(result, job)
		}
	}

	return result
}

// HasActive - whether there is a job of the channel which is still recording
func (r *Registry) HasActive(channel string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, job := range r.jobs {
		if job.Channel == channel && job.IsRecording() {
			return true
		}
	}

	return false
}

// ActiveCount - number of jobs which are still recording
func (r *Registry) ActiveCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if job.IsRecording() {
			count++
		}
	}

	return count
}

// Len - number of registered jobs
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.jobs)
}

// Prune - removes and returns all jobs which are not recording anymore
func (r *Registry) Prune() []*Job {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := make([]*Job, 0)
	kept := r.jobs[:0]

	for _, job := range r.jobs {
		if job.IsRecording() {
			kept = append(kept, job)
		} else {
			removed = append(removed, job)
		}
	}

	// Drop references held by the tail of the reused backing array
	for i := len(kept); i < len(r.jobs); i++ {
		r.jobs[i] = nil
	}

	r.jobs = kept
	return removed
}

// Remove - removes the job regardless of its state, returns false if it was not registered
func (r *Registry) Remove(job *Job) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, registered := range r.jobs {
		if registered == job {
			r.jobs = append(r.jobs[:i], r.jobs[i+1:]...)
			return true
		}
	}

	return false
}
