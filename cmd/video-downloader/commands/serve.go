package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/cobra"

	"github.com/MDigiTechnology/Video-Downloader/internal/config"
	"github.com/MDigiTechnology/Video-Downloader/internal/download"
	"github.com/MDigiTechnology/Video-Downloader/internal/downloadlog"
	"github.com/MDigiTechnology/Video-Downloader/internal/extractor"
	"github.com/MDigiTechnology/Video-Downloader/internal/info"
	"github.com/MDigiTechnology/Video-Downloader/internal/logger"
	"github.com/MDigiTechnology/Video-Downloader/internal/media"
	"github.com/MDigiTechnology/Video-Downloader/internal/metrics"
	"github.com/MDigiTechnology/Video-Downloader/internal/platform"
	"github.com/MDigiTechnology/Video-Downloader/internal/registry"
	"github.com/MDigiTechnology/Video-Downloader/internal/server"
	"github.com/MDigiTechnology/Video-Downloader/internal/stream"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

// NewServeCommand creates the serve command
func NewServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, closeLog, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Settings, log *logrus.Logger) error {
	log.WithField("version", Version).Info("video-downloader starting")

	for _, dir := range []string{cfg.Paths.Downloads, cfg.Paths.Logs, cfg.Paths.Temp} {
		if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if cfg.YTDLP.Install {
		if err := extractor.Install(ctx); err != nil {
			return fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	}

	tools := media.Probe(ctx)
	log.WithFields(logrus.Fields{
		"ffmpeg":  tools.FFmpeg,
		"ffprobe": tools.FFprobe,
		"yt_dlp":  tools.YTDLP,
	}).Info("external tools probed")
	if tools.FFmpeg {
		log.WithField("version", tools.FFmpegVersion).Info("FFmpeg is installed")
	} else {
		for _, line := range media.InstallHint {
			log.Warn(line)
		}
	}

	jobs := registry.New()

	pool, err := worker.NewPool(&worker.Config{
		MaxWorkers:  cfg.Download.MaxParallel,
		QueueSize:   cfg.Download.QueueSize,
		TaskTimeout: cfg.Download.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	pool.OnPanic(func(r *panics.Recovered) {
		log.WithField("panic", r.Value).Error("download worker panicked")
	})
	pool.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		pool.Stop(stopCtx)
	}()

	ex := extractor.NewYTDLP(cfg.YTDLP.Executable, log)

	opts := []download.Option{download.WithJournal(downloadlog.NewWriter(cfg.Paths.Logs))}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, download.WithMetrics(metrics.New(reg)))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	runner := download.NewRunner(download.Config{
		TempDir:      cfg.Paths.Temp,
		DownloadsDir: cfg.Paths.Downloads,
		StaticPrefix: cfg.Download.StaticPrefix,
		FFmpeg:       tools.FFmpeg,
	}, jobs, ex, pool, log, opts...)

	fetcher := info.NewFetcher(
		ex,
		platform.NewPlaylistParser(),
		info.NewOpenGraphClient(cfg.Instagram.BaseURL, cfg.Instagram.Timeout),
		log,
	)

	srv, err := server.New(server.Config{
		Addr:            cfg.Server.Addr(),
		Mode:            cfg.Server.Mode,
		DownloadsDir:    cfg.Paths.Downloads,
		StaticPrefix:    cfg.Download.StaticPrefix,
		MetricsPath:     cfg.Metrics.Path,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, server.Deps{
		Jobs:     jobs,
		Runner:   runner,
		Streamer: stream.NewStreamer(jobs, cfg.Stream.PollInterval),
		Info:     fetcher,
		Workers:  pool,
		Metrics:  metricsHandler,
		Tools:    tools,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
