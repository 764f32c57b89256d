package progress

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/registry"
)

func newSink(t *testing.T, ids ...string) (*Sink, *registry.Registry) {
	t.Helper()
	store := registry.New()
	for _, id := range ids {
		require.NoError(t, store.Create(model.NewJob(id, model.PlatformYouTube, "u", model.FormatVideo, model.QualityHighest)))
	}
	log, _ := logtest.NewNullLogger()
	return NewSink(store, log), store
}

func TestEvent_Percent(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected int
		ok       bool
	}{
		{"exact total", Event{DownloadedBytes: 50, TotalBytes: 200}, 25, true},
		{"floors", Event{DownloadedBytes: 999, TotalBytes: 1000}, 99, true},
		{"estimate", Event{DownloadedBytes: 30, TotalBytesEstimate: 60}, 50, true},
		{"exact wins over estimate", Event{DownloadedBytes: 10, TotalBytes: 100, TotalBytesEstimate: 20}, 10, true},
		{"zero total uses estimate", Event{DownloadedBytes: 10, TotalBytes: 0, TotalBytesEstimate: 40}, 25, true},
		{"no denominator", Event{DownloadedBytes: 10}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, ok := tt.event.Percent()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, percent)
		})
	}
}

func TestSink_Downloading(t *testing.T) {
	sink, store := newSink(t, "yt_1")

	sink.Handle(Event{
		JobID:           "yt_1",
		Status:          StatusDownloading,
		DownloadedBytes: 512,
		TotalBytes:      1024,
		Speed:           model.Ptr(2048.0),
		ETASec:          model.Ptr(12),
		Filename:        "/tmp/yt_1.mp4",
	})

	job, _ := store.Get("yt_1")
	assert.Equal(t, model.PhaseDownloading, job.Phase)
	assert.Equal(t, 50, job.Percent)
	require.NotNil(t, job.Speed)
	assert.Equal(t, 2048.0, *job.Speed)
	require.NotNil(t, job.ETASec)
	assert.Equal(t, 12, *job.ETASec)
	assert.Equal(t, "/tmp/yt_1.mp4", job.Filename)
}

func TestSink_MissingDenominatorKeepsPercent(t *testing.T) {
	sink, store := newSink(t, "yt_1")

	sink.Handle(Event{JobID: "yt_1", Status: StatusDownloading, DownloadedBytes: 40, TotalBytes: 100})
	sink.Handle(Event{JobID: "yt_1", Status: StatusDownloading, DownloadedBytes: 60})

	job, _ := store.Get("yt_1")
	assert.Equal(t, 40, job.Percent)
}

func TestSink_PercentMonotonic(t *testing.T) {
	sink, store := newSink(t, "yt_1")

	last := 0
	for downloaded := int64(0); downloaded <= 1000; downloaded += 97 {
		sink.Handle(Event{JobID: "yt_1", Status: StatusDownloading, DownloadedBytes: downloaded, TotalBytesEstimate: 1000})
		job, _ := store.Get("yt_1")
		assert.GreaterOrEqual(t, job.Percent, last)
		last = job.Percent
	}
}

func TestSink_Finished(t *testing.T) {
	sink, store := newSink(t, "yt_1")

	sink.Handle(Event{JobID: "yt_1", Status: StatusFinished, Filename: "/tmp/yt_1.mp4"})

	job, _ := store.Get("yt_1")
	assert.Equal(t, 100, job.Percent)
	assert.True(t, job.Transferred)
	assert.Equal(t, "/tmp/yt_1.mp4", job.Filename)
	assert.Equal(t, model.PhaseDownloading, job.Phase, "only the runner marks a job finished")
}

func TestSink_GenericIdentityFallsBackToLatest(t *testing.T) {
	sink, store := newSink(t, "yt_1", "yt_2")

	sink.Handle(Event{JobID: GenericJobID, Status: StatusDownloading, DownloadedBytes: 1, TotalBytes: 4})
	sink.Handle(Event{Status: StatusDownloading, DownloadedBytes: 2, TotalBytes: 4})

	first, _ := store.Get("yt_1")
	latest, _ := store.Get("yt_2")
	assert.Equal(t, 0, first.Percent)
	assert.Equal(t, 50, latest.Percent)
}

func TestSink_UnknownJobIgnored(t *testing.T) {
	sink, store := newSink(t)

	assert.NotPanics(t, func() {
		sink.Handle(Event{JobID: "ghost", Status: StatusDownloading, DownloadedBytes: 1, TotalBytes: 2})
		sink.Handle(Event{Status: StatusFinished})
	})
	assert.Equal(t, 0, store.Len())
}

type panickingStore struct{ registry.Store }

func (panickingStore) Latest() (string, bool) { return "x", true }

func (panickingStore) Update(string, model.Update) bool { panic("boom") }

func TestSink_SwallowsPanics(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	sink := NewSink(panickingStore{}, log)

	assert.NotPanics(t, func() {
		sink.Handle(Event{Status: StatusDownloading})
	})
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "boom")
}
