package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/MDigiTechnology/Video-Downloader/internal/download"
	"github.com/MDigiTechnology/Video-Downloader/internal/info"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/platform"
	"github.com/MDigiTechnology/Video-Downloader/internal/stream"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

// Response texts
const (
	msgMissingURL       = "Please provide a URL"
	msgUnknownPlatform  = "Could not detect platform from URL"
	msgUnsupported      = "Unsupported platform"
	msgStarted          = "Download started. Please wait..."
	msgNotFound         = "Download not found"
	msgNotComplete      = "Download not complete"
	msgInvalidBody      = "Invalid request body"
	msgInvalidInstagram = "Invalid Instagram URL. Please use a direct post or reel link."
	msgInfoUnsupported  = "Unsupported platform. Please use YouTube, Instagram, or Facebook URL"
)

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "healthy",
		"jobs":   s.deps.Jobs.Len(),
		"phases": s.deps.Jobs.CountByPhase(),
		"ffmpeg": s.deps.Tools.FFmpeg,
	}
	if s.deps.Workers != nil {
		body["workers"] = s.deps.Workers.Stats()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleDownload(c *gin.Context) {
	req := download.Request{
		URL:      c.PostForm("url"),
		Platform: c.DefaultPostForm("platform", platform.PlatformAuto),
		Format:   model.Format(c.DefaultPostForm("format", string(model.FormatVideo))),
		Quality:  model.Quality(c.DefaultPostForm("quality", string(model.QualityHighest))),
	}

	id, err := s.deps.Runner.Submit(c.Request.Context(), req)
	if err != nil {
		var notice *download.Notice
		switch {
		case errors.As(err, &notice):
			c.JSON(http.StatusOK, gin.H{"message": notice.Message, "alternatives": notice.Alternatives})
		case errors.Is(err, download.ErrMissingURL):
			c.JSON(http.StatusBadRequest, errorBody(msgMissingURL))
		case errors.Is(err, download.ErrUnknownPlatform):
			c.JSON(http.StatusBadRequest, errorBody(msgUnknownPlatform))
		case errors.Is(err, download.ErrUnsupportedPlatform):
			c.JSON(http.StatusBadRequest, errorBody(msgUnsupported))
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
			c.JSON(http.StatusServiceUnavailable, errorBody(download.MsgQueueFull))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_id": id,
		"status":      "started",
		"message":     msgStarted,
	})
}

func (s *Server) handleProgress(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	err := s.deps.Streamer.Stream(ctx, id, func(ev stream.Event) error {
		c.SSEvent("message", ev.Payload())
		c.Writer.Flush()
		return ctx.Err()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.deps.Log.WithError(err).WithField("job_id", id).Debug("progress stream closed")
	}
}

// finishedJob loads a job that can be served, writing the error response otherwise
func (s *Server) finishedJob(c *gin.Context) (*model.Job, bool) {
	job, ok := s.deps.Jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody(msgNotFound))
		return nil, false
	}
	if job.Error != "" {
		c.JSON(http.StatusInternalServerError, errorBody(job.Error))
		return nil, false
	}
	if job.Phase != model.PhaseFinished || job.Result == nil {
		c.JSON(http.StatusBadRequest, errorBody(msgNotComplete))
		return nil, false
	}
	return job, true
}

func attachmentName(job *model.Job) string {
	return fmt.Sprintf("%s.%s", platform.SanitizeFilename(job.DisplayTitle()), job.Result.Ext)
}

// contentType maps an artifact extension to its media type
func contentType(ext string) string {
	switch ext {
	case "mp4":
		return "video/mp4"
	case "mp3":
		return "audio/mp3"
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func (s *Server) handleGetFile(c *gin.Context) {
	job, ok := s.finishedJob(c)
	if !ok {
		return
	}

	path := job.Result.FilePath
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, errorBody("File not found at "+path))
		return
	}

	c.Header("Content-Type", contentType(job.Result.Ext))
	c.FileAttachment(path, attachmentName(job))
}

func (s *Server) handleDirectDownload(c *gin.Context) {
	job, ok := s.finishedJob(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":        platform.SanitizeFilename(job.DisplayTitle()),
		"format":       job.Result.Ext,
		"download_url": job.Result.StaticPath,
	})
}

func (s *Server) handleFallbackDownload(c *gin.Context) {
	job, ok := s.finishedJob(c)
	if !ok {
		return
	}

	path := job.Result.FilePath
	f, err := os.Open(path)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("File not found at "+path))
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Error sending file: "+err.Error()))
		return
	}

	c.DataFromReader(http.StatusOK, stat.Size(), contentType(job.Result.Ext), f, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, attachmentName(job)),
	})
}

func (s *Server) handleCheckDownload(c *gin.Context) {
	job, ok := s.deps.Jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody(msgNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "found", "download_info": job})
}

type infoRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

func (s *Server) handleInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(msgInvalidBody))
		return
	}
	if req.Platform == "" {
		req.Platform = platform.PlatformAuto
	}

	result, err := s.deps.Info.Fetch(c.Request.Context(), req.URL, req.Platform)
	if err != nil {
		var fetchErr *info.FetchError
		switch {
		case errors.Is(err, info.ErrMissingURL):
			c.JSON(http.StatusBadRequest, errorBody(msgMissingURL))
		case errors.Is(err, info.ErrInvalidInstagramURL):
			c.JSON(http.StatusBadRequest, errorBody(msgInvalidInstagram))
		case errors.Is(err, info.ErrUnsupportedPlatform):
			c.JSON(http.StatusBadRequest, errorBody(msgInfoUnsupported))
		case errors.As(err, &fetchErr):
			c.JSON(http.StatusInternalServerError, errorBody(
				fmt.Sprintf("Could not fetch %s video info: %v", fetchErr.Platform.DisplayName(), fetchErr.Err)))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
