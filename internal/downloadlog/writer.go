// Package downloadlog appends a human readable record of every successful
// download to a per-day file.
package downloadlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MDigiTechnology/Video-Downloader/internal/platform"
)

const (
	filePrefix = "downloads_"
	fileExt    = ".log"
	separator  = "-----------------------------------------"
	unknown    = "Unknown"
)

// Entry is one successful download
type Entry struct {
	Title    string
	Duration string
	Platform string
	Size     int64 // bytes, negative if unknown
}

// Writer appends entries to downloads_YYYY-MM-DD.log in dir
type Writer struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Path returns the log file for the given day
func (w *Writer) Path(day time.Time) string {
	return filepath.Join(w.dir, filePrefix+day.Format("2006-01-02")+fileExt)
}

// Record appends e to today's file
func (w *Writer) Record(e Entry) error {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := platform.CreateDirectoryIfNotExists(w.dir); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(w.Path(now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, platform.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to open download log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatEntry(e, now)); err != nil {
		return fmt.Errorf("failed to write download log: %w", err)
	}
	return nil
}

func formatEntry(e Entry, at time.Time) string {
	return fmt.Sprintf("Download at %s\nTitle: %s\nDuration: %s\nPlatform: %s\nSize: %s\n%s\n",
		at.Format("2006-01-02 15:04:05"),
		orUnknown(e.Title),
		orUnknown(e.Duration),
		orUnknown(e.Platform),
		FormatSize(e.Size),
		separator,
	)
}

// FormatSize renders a byte count with two decimals in base 1024 units
func FormatSize(size int64) string {
	const unit = 1024
	switch {
	case size < 0:
		return unknown
	case size < unit:
		return fmt.Sprintf("%d B", size)
	case size < unit*unit:
		return fmt.Sprintf("%.2f KB", float64(size)/unit)
	case size < unit*unit*unit:
		return fmt.Sprintf("%.2f MB", float64(size)/(unit*unit))
	default:
		return fmt.Sprintf("%.2f GB", float64(size)/(unit*unit*unit))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
