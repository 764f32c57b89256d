// Package registry holds the in-memory table of download jobs. It is the
// single source of truth for progress, results and errors, and is safe for
// concurrent use by job runners, progress callbacks and stream readers.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// ErrJobExists is returned by Create when the identity is already registered
var ErrJobExists = errors.New("job already exists")

// Store is the create/get/update contract over job records
type Store interface {
	Create(job *model.Job) error
	Get(id string) (*model.Job, bool)
	Update(id string, update model.Update) bool
	Latest() (string, bool)
}

// Registry is a Store backed by a map guarded by a RWMutex.
// Records are never evicted.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	order []string // identities in creation order
	now   func() time.Time
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		jobs: make(map[string]*model.Job),
		now:  time.Now,
	}
}

// Create stores a copy of job under job.ID
func (r *Registry) Create(job *model.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job identity is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	r.order = append(r.order, job.ID)
	return nil
}

// Get returns a snapshot of the job. Callers may keep or modify the copy freely.
func (r *Registry) Get(id string) (*model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, false
	}
	return job.Clone(), true
}

// Update merges update into the job and reports whether it changed.
// Unknown identities are ignored.
func (r *Registry) Update(id string, update model.Update) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, exists := r.jobs[id]
	if !exists {
		return false
	}
	return job.Apply(update, r.now())
}

// Latest returns the identity of the most recently created job
func (r *Registry) Latest() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return "", false
	}
	return r.order[len(r.order)-1], true
}

// Len returns the number of registered jobs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// CountByPhase returns how many jobs are in each phase
func (r *Registry) CountByPhase() map[model.Phase]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Phase]int, 4)
	for _, job := range r.jobs {
		counts[job.Phase]++
	}
	return counts
}
