// Package progress derives the dashboard percentages for a project: how many
// of its tasks are done, and how much of its scheduled window has elapsed.
// Both functions are pure; callers supply the current instant.
package progress

import (
	"math"
	"time"

	"github.com/plannerhq/planner-api/internal/models"
)

// TaskProgress returns the percentage of tasks with status done, rounded
// half away from zero. An empty task list yields 0.
func TaskProgress(tasks []models.Task) int {
	if len(tasks) == 0 {
		return 0
	}

	done := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(tasks)) * 100))
}

// TimeProgress returns the percentage of the [start, end] window elapsed at
// now, rounded half away from zero and clamped to [0, 100]. Missing dates
// yield 0; a zero-length window that has started yields 100. Comparison is
// at full time.Time precision, not calendar days.
func TimeProgress(start, end *time.Time, now time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	if now.Before(*start) {
		return 0
	}
	if now.After(*end) {
		return 100
	}
	total := end.Sub(*start)
	if total <= 0 {
		return 100
	}

	elapsed := now.Sub(*start)
	pct := int(math.Round(float64(elapsed) / float64(total) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
