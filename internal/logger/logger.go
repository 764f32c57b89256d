// Package logger builds the service's logrus logger from configuration.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MDigiTechnology/Video-Downloader/internal/config"
)

// New returns a configured logger and a cleanup func closing any log file
func New(c config.Log) (*logrus.Logger, func(), error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	cleanup := func() {}
	switch c.Output {
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		if c.File == "" {
			return nil, nil, fmt.Errorf("log output is file but no log file is configured")
		}
		w := &dailyFile{base: c.File, now: time.Now}
		if err := w.open(); err != nil {
			return nil, nil, err
		}
		l.SetOutput(w)
		cleanup = func() { _ = w.Close() }
	default:
		l.SetOutput(os.Stdout)
	}

	return l, cleanup, nil
}

// dailyFile writes to <base>.<YYYY-MM-DD>.log and switches files when the day changes
type dailyFile struct {
	base string
	now  func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

var _ io.WriteCloser = (*dailyFile)(nil)

func (d *dailyFile) path(day string) string {
	return fmt.Sprintf("%s.%s.log", strings.TrimSuffix(d.base, ".log"), day)
}

func (d *dailyFile) open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotate(d.now().Format("2006-01-02"))
}

// rotate must be called with mu held
func (d *dailyFile) rotate(day string) error {
	if err := os.MkdirAll(filepath.Dir(d.base), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(d.path(day), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if day := d.now().Format("2006-01-02"); day != d.day || d.file == nil {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
