// Package stream turns the state of one job into a sequence of progress
// events for a long-lived client connection.
package stream

import (
	"context"
	"time"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// DefaultPollInterval is the delay between two reads of the job record
const DefaultPollInterval = 300 * time.Millisecond

const unknown = "Unknown"

// Kind tags an event
type Kind string

const (
	KindProgress Kind = "progress"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

// Event is one message sent to the client
type Event struct {
	Kind         Kind
	ID           string
	Percent      int
	Speed        string
	ETA          string
	Error        string
	Alternatives []string
}

// Terminal reports whether the stream ends after this event
func (e Event) Terminal() bool {
	return e.Kind != KindProgress
}

// Payload returns the wire body of the event
func (e Event) Payload() map[string]any {
	if e.Kind == KindError {
		payload := map[string]any{"id": e.ID, "error": e.Error}
		if len(e.Alternatives) > 0 {
			payload["alternatives"] = e.Alternatives
		}
		return payload
	}
	return map[string]any{"id": e.ID, "percent": e.Percent, "speed": e.Speed, "eta": e.ETA}
}

// Reader is the read side of the job registry
type Reader interface {
	Get(id string) (*model.Job, bool)
}

// Streamer polls a Reader on a fixed interval
type Streamer struct {
	jobs     Reader
	interval time.Duration
}

// NewStreamer creates a streamer. A non-positive interval uses DefaultPollInterval.
func NewStreamer(jobs Reader, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Streamer{jobs: jobs, interval: interval}
}

// Stream emits a starting event, then one event per tick until the job is
// terminal, ctx is done or emit fails. Unknown jobs produce no events after
// the first one. The download itself is never affected.
func (s *Streamer) Stream(ctx context.Context, id string, emit func(Event) error) error {
	if err := emit(Event{Kind: KindProgress, ID: id, Speed: "Starting...", ETA: "Calculating..."}); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ev, ok := s.next(id); ok {
			if err := emit(ev); err != nil {
				return err
			}
			if ev.Terminal() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// next builds the event for the current record
func (s *Streamer) next(id string) (Event, bool) {
	job, ok := s.jobs.Get(id)
	if !ok {
		return Event{}, false
	}

	switch {
	case job.Error != "":
		return Event{Kind: KindError, ID: id, Error: job.Error, Alternatives: job.Alternatives}, true
	case job.Phase == model.PhaseFailed:
		return Event{Kind: KindError, ID: id, Error: "Download failed"}, true
	case job.Percent == 100 && job.Phase == model.PhaseFinished:
		return Event{Kind: KindComplete, ID: id, Percent: 100, Speed: "Complete", ETA: "0"}, true
	default:
		// A transfer at 100% may still be post-processing; keep reporting
		// progress until the artifact is published.
		return Event{Kind: KindProgress, ID: id, Percent: job.Percent, Speed: FormatSpeed(job.Speed), ETA: FormatETA(job.ETASec)}, true
	}
}
