// Package progress normalizes the loosely structured callbacks emitted by the
// media collaborator into job record updates.
package progress

import (
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/registry"
)

// Status is the status tag of a collaborator callback
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
)

// GenericJobID is the placeholder identity some extractors report instead of a job id
const GenericJobID = "video"

// Event is one collaborator callback. Every numeric field is optional.
type Event struct {
	JobID              string
	Status             Status
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	Speed              *float64 // bytes per second
	ETASec             *int
	Filename           string
}

// Percent computes floor(100 * downloaded / total), preferring the exact total
// over the estimate. ok is false when neither denominator is known.
func (e Event) Percent() (percent int, ok bool) {
	total := e.TotalBytes
	if total <= 0 {
		total = e.TotalBytesEstimate
	}
	if total <= 0 {
		return 0, false
	}
	return int(100 * e.DownloadedBytes / total), true
}

// Sink applies collaborator events to the job store
type Sink struct {
	store registry.Store
	log   logrus.FieldLogger
}

// NewSink creates a sink writing into store
func NewSink(store registry.Store, log logrus.FieldLogger) *Sink {
	return &Sink{store: store, log: log}
}

// Handle applies ev to its job. It never panics and never returns an error:
// a broken progress report must not abort the download it describes.
func (s *Sink) Handle(ev Event) {
	if recovered := panics.Try(func() { s.handle(ev) }); recovered != nil {
		s.log.WithField("job_id", ev.JobID).Debugf("progress event dropped: %v", recovered.Value)
	}
}

func (s *Sink) handle(ev Event) {
	id, ok := s.resolve(ev.JobID)
	if !ok {
		return
	}

	switch ev.Status {
	case StatusDownloading:
		update := model.Update{
			Phase:    model.Ptr(model.PhaseDownloading),
			Rate:     &model.Rate{Speed: ev.Speed, ETASec: ev.ETASec},
			Filename: ev.Filename,
		}
		if percent, ok := ev.Percent(); ok {
			update.Percent = &percent
		}
		s.store.Update(id, update)
	case StatusFinished:
		s.store.Update(id, model.Update{
			Phase:       model.Ptr(model.PhaseDownloading),
			Percent:     model.Ptr(100),
			Rate:        &model.Rate{},
			Filename:    ev.Filename,
			Transferred: true,
		})
	}
}

// resolve maps the reported identity to a registered job. When the identity
// is missing or generic it falls back to the most recently created job, which
// can attribute progress to the wrong job if several run at once. Adapters
// that know their job bind the identity themselves and never reach the fallback.
func (s *Sink) resolve(id string) (string, bool) {
	if id != "" && id != GenericJobID {
		return id, true
	}
	return s.store.Latest()
}
