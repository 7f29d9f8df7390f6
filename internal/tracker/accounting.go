// Package tracker runs a live study session: the lifecycle state machine,
// the elapsed-time accounting and the one-second side-effect scheduler.
package tracker

import (
	"fmt"
	"math"
	"time"
)

// ElapsedSeconds returns the whole seconds of active study time between
// start and now, excluding completed pauses. Valid only while the session
// is active; while paused the last computed value is held by the engine.
func ElapsedSeconds(now, start time.Time, totalPaused int) int {
	return int(now.Sub(start)/time.Second) - totalPaused
}

// FormatDuration renders a seconds count as zero-padded HH:MM:SS.
func FormatDuration(seconds int) string {
	hrs := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
}

// ProgressPercent returns how far elapsed time has advanced toward the
// target duration, capped at 100. A session without a target reports 0.
func ProgressPercent(elapsedSeconds int, targetMinutes *int) float64 {
	if targetMinutes == nil || *targetMinutes <= 0 {
		return 0
	}

	pct := float64(elapsedSeconds) / float64(*targetMinutes*60) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}

	return pct
}

// SessionHours converts an elapsed-seconds count to hours rounded to two
// decimal places, the unit stored in the daily log.
func SessionHours(elapsedSeconds int) float64 {
	hours := float64(elapsedSeconds) / 3600

	return math.Round(hours*100) / 100
}
