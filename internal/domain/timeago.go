package domain

import (
	"fmt"
	"time"
)

// elapsedMinutes floors the time since t. Timestamps in the future count as
// zero elapsed time.
func elapsedMinutes(t, now time.Time) int64 {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	return int64(d / time.Minute)
}

func relative(minutes int64) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

func PostAge(t, now time.Time) string {
	minutes := elapsedMinutes(t, now)
	if minutes < 5 {
		return "added recently"
	}
	return relative(minutes)
}

func CommentAge(t, now time.Time) string {
	return relative(elapsedMinutes(t, now))
}

// LocalTime renders an absolute timestamp for report details.
func LocalTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("Jan 2, 2006, 3:04:05 PM")
}
