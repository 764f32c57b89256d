package stream

import "fmt"

// FormatSpeed renders bytes per second in B/s, KB/s or MB/s
func FormatSpeed(speed *float64) string {
	if speed == nil {
		return unknown
	}

	const unit = 1024
	s := *speed
	switch {
	case s < unit:
		return fmt.Sprintf("%.1f B/s", s)
	case s < unit*unit:
		return fmt.Sprintf("%.1f KB/s", s/unit)
	default:
		return fmt.Sprintf("%.1f MB/s", s/(unit*unit))
	}
}

// FormatETA renders a remaining time in seconds
func FormatETA(eta *int) string {
	if eta == nil || *eta <= 0 {
		return unknown
	}

	sec := *eta
	switch {
	case sec < 60:
		return fmt.Sprintf("%d sec", sec)
	case sec < 3600:
		return fmt.Sprintf("%d min %d sec", sec/60, sec%60)
	default:
		return fmt.Sprintf("%d hr %d min", sec/3600, (sec%3600)/60)
	}
}
