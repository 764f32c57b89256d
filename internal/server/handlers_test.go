package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MDigiTechnology/Video-Downloader/internal/download"
	"github.com/MDigiTechnology/Video-Downloader/internal/info"
	"github.com/MDigiTechnology/Video-Downloader/internal/media"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/registry"
	"github.com/MDigiTechnology/Video-Downloader/internal/stream"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

type fakeSubmitter struct {
	id  string
	err error
	req download.Request
}

func (f *fakeSubmitter) Submit(_ context.Context, req download.Request) (string, error) {
	f.req = req
	return f.id, f.err
}

type fakeFetcher struct {
	info *info.Info
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string, string) (*info.Info, error) {
	return f.info, f.err
}

type fixedStats worker.Stats

func (f fixedStats) Stats() worker.Stats {
	return worker.Stats(f)
}

type fixture struct {
	srv       *Server
	jobs      *registry.Registry
	submitter *fakeSubmitter
	dir       string
}

func newFixture(t *testing.T, fetcher InfoFetcher) *fixture {
	t.Helper()
	log, _ := logtest.NewNullLogger()

	if fetcher == nil {
		fetcher = fakeFetcher{}
	}
	jobs := registry.New()
	submitter := &fakeSubmitter{id: "yt_1"}
	dir := t.TempDir()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "test"}))

	srv, err := New(Config{
		Mode:         gin.TestMode,
		DownloadsDir: dir,
		StaticPrefix: "/static/downloads/",
		MetricsPath:  "/metrics",
	}, Deps{
		Jobs:     jobs,
		Runner:   submitter,
		Streamer: stream.NewStreamer(jobs, 5*time.Millisecond),
		Info:     fetcher,
		Workers:  fixedStats{ActiveWorkers: 2, PendingTasks: 3},
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Tools:    media.Tools{FFmpeg: true},
		Log:      log,
	})
	require.NoError(t, err)

	return &fixture{srv: srv, jobs: jobs, submitter: submitter, dir: dir}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// finished registers a completed job whose artifact holds content
func (f *fixture) finished(t *testing.T, id, title, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, fmt.Sprintf("%s_%s.mp4", title, id))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	job := model.NewJob(id, model.PlatformYouTube, "https://youtu.be/x", model.FormatVideo, model.QualityHighest)
	job.Phase = model.PhaseFinished
	job.Percent = 100
	job.Metadata = &model.Metadata{Title: title}
	job.Result = &model.Result{
		FilePath:   path,
		StaticPath: "/static/downloads/" + url.PathEscape(filepath.Base(path)),
		Ext:        "mp4",
		Size:       int64(len(content)),
	}
	require.NoError(t, f.jobs.Create(job))
	return path
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "clip", "data")

	w := f.get("/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["jobs"])
	assert.Equal(t, true, body["ffmpeg"])

	workers, ok := body["workers"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, workers["active"])
	assert.EqualValues(t, 3, workers["pending"])
	assert.EqualValues(t, 0, workers["completed"])
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, nil)

	w := f.get("/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "probe_total")
}

func TestDownload_Started(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(postForm(url.Values{"url": {"https://youtu.be/x"}, "format": {"audio"}}))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "yt_1", body["download_id"])
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, msgStarted, body["message"])

	assert.Equal(t, "https://youtu.be/x", f.submitter.req.URL)
	assert.Equal(t, "auto", f.submitter.req.Platform)
	assert.Equal(t, model.FormatAudio, f.submitter.req.Format)
	assert.Equal(t, model.QualityHighest, f.submitter.req.Quality)
}

func TestDownload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"missing url", download.ErrMissingURL, http.StatusBadRequest, msgMissingURL},
		{"unknown platform", download.ErrUnknownPlatform, http.StatusBadRequest, msgUnknownPlatform},
		{"unsupported platform", download.ErrUnsupportedPlatform, http.StatusBadRequest, msgUnsupported},
		{"queue full", fmt.Errorf("failed to schedule job: %w", worker.ErrQueueFull), http.StatusServiceUnavailable, download.MsgQueueFull},
		{"unexpected", errors.New("disk gone"), http.StatusInternalServerError, "disk gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.submitter.err = tt.err

			w := f.do(postForm(url.Values{"url": {"x"}}))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decode(t, w)["error"])
		})
	}
}

func TestDownload_FacebookNotice(t *testing.T) {
	f := newFixture(t, nil)
	f.submitter.err = download.FacebookNotice()

	w := f.do(postForm(url.Values{"url": {"https://facebook.com/watch?v=1"}}))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, download.FacebookNotice().Message, body["message"])
	assert.Len(t, body["alternatives"], 3)
}

func TestProgress_StreamsUntilComplete(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "clip", "data")

	w := f.get("/progress/yt_done")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `"speed":"Starting..."`)
	assert.Contains(t, body, `"percent":100`)
	assert.Contains(t, body, `"speed":"Complete"`)
}

func TestProgress_Failed(t *testing.T) {
	f := newFixture(t, nil)
	job := model.NewJob("ig_bad", model.PlatformInstagram, "u", model.FormatVideo, "")
	job.Phase = model.PhaseFailed
	job.Error = "Instagram download failed"
	job.Alternatives = []string{"try later"}
	require.NoError(t, f.jobs.Create(job))

	w := f.get("/progress/ig_bad")

	body := w.Body.String()
	assert.Contains(t, body, `"error":"Instagram download failed"`)
	assert.Contains(t, body, `"alternatives":["try later"]`)
}

func TestProgress_UnknownJobEndsWithClient(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	w := f.do(httptest.NewRequest(http.MethodGet, "/progress/nope", nil).WithContext(ctx))

	assert.Equal(t, 1, strings.Count(w.Body.String(), "data:"))
}

func TestGetFile(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "My Clip", "video-bytes")

	w := f.get("/get_file/yt_done")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video-bytes", w.Body.String())
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="My Clip.mp4"`)
}

func TestServedEndpoints_JobStates(t *testing.T) {
	f := newFixture(t, nil)

	running := model.NewJob("yt_run", model.PlatformYouTube, "u", model.FormatVideo, "")
	require.NoError(t, f.jobs.Create(running))

	failed := model.NewJob("yt_fail", model.PlatformYouTube, "u", model.FormatVideo, "")
	failed.Phase = model.PhaseFailed
	failed.Error = "YouTube detected automated access"
	require.NoError(t, f.jobs.Create(failed))

	gone := f.finished(t, "yt_gone", "clip", "x")
	require.NoError(t, os.Remove(gone))

	for _, endpoint := range []string{"/get_file/", "/direct_download/", "/fallback_download/"} {
		t.Run(endpoint, func(t *testing.T) {
			w := f.get(endpoint + "missing")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, msgNotFound, decode(t, w)["error"])

			w = f.get(endpoint + "yt_run")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, msgNotComplete, decode(t, w)["error"])

			w = f.get(endpoint + "yt_fail")
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, failed.Error, decode(t, w)["error"])
		})
	}

	for _, endpoint := range []string{"/get_file/", "/fallback_download/"} {
		w := f.get(endpoint + "yt_gone")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "File not found at "+gone, decode(t, w)["error"])
	}
}

func TestDirectDownload(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "clip", "data")

	w := f.get("/direct_download/yt_done")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "clip", body["title"])
	assert.Equal(t, "mp4", body["format"])
	assert.Equal(t, "/static/downloads/clip_yt_done.mp4", body["download_url"])

	static := f.get(body["download_url"].(string))
	require.Equal(t, http.StatusOK, static.Code)
	assert.Equal(t, "data", static.Body.String())
}

func TestFallbackDownload(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "clip", "payload")

	w := f.get("/fallback_download/yt_done")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())
	assert.Equal(t, `attachment; filename="clip.mp4"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
}

func TestCheckDownload(t *testing.T) {
	f := newFixture(t, nil)
	f.finished(t, "yt_done", "clip", "data")

	w := f.get("/check_download/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.get("/check_download/yt_done")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "found", body["status"])
	job, ok := body["download_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "yt_done", job["id"])
	assert.Equal(t, "Finished", job["phase"])
}

func TestInfo(t *testing.T) {
	f := newFixture(t, fakeFetcher{info: &info.Info{Title: "clip", Platform: "YouTube"}})

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/info", bytes.NewBufferString(`{"url":"https://youtu.be/x"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "clip", body["title"])
	assert.Equal(t, "YouTube", body["platform"])
}

func TestInfo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad body", `{`, nil, http.StatusBadRequest, msgInvalidBody},
		{"missing url", `{}`, info.ErrMissingURL, http.StatusBadRequest, msgMissingURL},
		{"invalid instagram", `{"url":"x"}`, info.ErrInvalidInstagramURL, http.StatusBadRequest, msgInvalidInstagram},
		{"unsupported", `{"url":"x"}`, info.ErrUnsupportedPlatform, http.StatusBadRequest, msgInfoUnsupported},
		{
			"youtube failure", `{"url":"x"}`,
			&info.FetchError{Platform: model.PlatformYouTube, Err: errors.New("private video")},
			http.StatusInternalServerError, "Could not fetch YouTube video info: private video",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, fakeFetcher{err: tt.err})

			w := f.do(httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decode(t, w)["error"])
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", contentType("mp4"))
	assert.Equal(t, "audio/mp3", contentType("mp3"))
	assert.Equal(t, "application/octet-stream", contentType("zzz-unknown"))
}
