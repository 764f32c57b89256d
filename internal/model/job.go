package model

import (
	"slices"
	"time"
)

// Job is the record of a single download tracked from submission to a terminal phase
type Job struct {
	ID       string   `json:"id"`
	Platform Platform `json:"platform"`
	URL      string   `json:"url"`
	Format   Format   `json:"format"`
	Quality  Quality  `json:"quality,omitempty"`
	Phase    Phase    `json:"phase"`
	Percent  int      `json:"percent"`           // 0 to 100, never decreases
	Speed    *float64 `json:"speed"`             // bytes per second, nil if unknown
	ETASec   *int     `json:"eta"`               // seconds, nil if unknown
	Filename string   `json:"filename,omitempty"` // last file reported by the collaborator

	// Transferred is set when the collaborator reports the transfer finished.
	// It does not mean the job is Finished; post-processing may still run.
	Transferred bool `json:"transferred"`

	Result       *Result   `json:"result,omitempty"`
	Metadata     *Metadata `json:"metadata,omitempty"`
	Error        string    `json:"error,omitempty"`
	Alternatives []string  `json:"alternatives,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Result locates a published artifact
type Result struct {
	FilePath   string `json:"file_path"`
	StaticPath string `json:"static_path"`
	Ext        string `json:"format"`
	Size       int64  `json:"size"`
}

// Metadata describes the downloaded media
type Metadata struct {
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
	URL         string `json:"url"`
}

// Rate carries the raw transfer speed and ETA reported by the collaborator
type Rate struct {
	Speed  *float64
	ETASec *int
}

// Update is a partial change merged into a Job. Nil fields are left untouched.
type Update struct {
	Phase        *Phase
	Percent      *int
	Rate         *Rate
	Filename     string
	Transferred  bool
	Result       *Result
	Metadata     *Metadata
	Error        string
	Alternatives []string
}

// NewJob creates a job record in the Starting phase
func NewJob(id string, platform Platform, url string, format Format, quality Quality) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Platform:  platform,
		URL:       url,
		Format:    format,
		Quality:   quality,
		Phase:     PhaseStarting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply merges u into the job and reports whether anything changed.
// Terminal jobs are immutable, phases only move forward and percent never regresses.
func (j *Job) Apply(u Update, now time.Time) bool {
	if j.Phase.IsFinished() {
		return false
	}

	changed := false
	if u.Phase != nil && j.Phase.CanTransition(*u.Phase) {
		j.Phase = *u.Phase
		if j.Phase.IsFinished() {
			finished := now
			j.FinishedAt = &finished
		}
		changed = true
	}
	if u.Percent != nil {
		percent := min(max(*u.Percent, 0), 100)
		if percent > j.Percent {
			j.Percent = percent
			changed = true
		}
	}
	if u.Rate != nil {
		j.Speed = u.Rate.Speed
		j.ETASec = u.Rate.ETASec
		changed = true
	}
	if u.Filename != "" {
		j.Filename = u.Filename
		changed = true
	}
	if u.Transferred && !j.Transferred {
		j.Transferred = true
		changed = true
	}
	if u.Result != nil {
		result := *u.Result
		j.Result = &result
		changed = true
	}
	if u.Metadata != nil {
		metadata := *u.Metadata
		j.Metadata = &metadata
		changed = true
	}
	if u.Error != "" {
		j.Error = u.Error
		changed = true
	}
	if len(u.Alternatives) > 0 {
		j.Alternatives = slices.Clone(u.Alternatives)
		changed = true
	}

	if changed {
		j.UpdatedAt = now
	}
	return changed
}

// Clone returns a deep copy that shares no memory with j
func (j *Job) Clone() *Job {
	c := *j
	if j.Speed != nil {
		speed := *j.Speed
		c.Speed = &speed
	}
	if j.ETASec != nil {
		eta := *j.ETASec
		c.ETASec = &eta
	}
	if j.Result != nil {
		result := *j.Result
		c.Result = &result
	}
	if j.Metadata != nil {
		metadata := *j.Metadata
		c.Metadata = &metadata
	}
	if j.FinishedAt != nil {
		finished := *j.FinishedAt
		c.FinishedAt = &finished
	}
	c.Alternatives = slices.Clone(j.Alternatives)
	return &c
}

// DisplayTitle returns the metadata title, or a fallback when the job has none yet
func (j *Job) DisplayTitle() string {
	if j.Metadata != nil && j.Metadata.Title != "" {
		return j.Metadata.Title
	}
	return "download"
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
