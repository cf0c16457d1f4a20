package progress

import (
	"testing"
	"time"

	"github.com/plannerhq/planner-api/internal/models"
	"github.com/stretchr/testify/require"
)

func taskWithStatus(status models.TaskStatus) models.Task {
	return models.Task{Status: status}
}

func TestTaskProgress(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.Task
		want  int
	}{
		{"empty", nil, 0},
		{"none done", []models.Task{
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusInProgress),
		}, 0},
		{"one of three done", []models.Task{
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusPending),
		}, 33},
		{"two of three done", []models.Task{
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusPending),
		}, 67},
		{"all done", []models.Task{
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusDone),
		}, 100},
		{"half rounds up", []models.Task{
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusDone),
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusPending),
			taskWithStatus(models.TaskStatusPending),
		}, 38}, // 3/8 = 37.5
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TaskProgress(tt.tasks))
		})
	}
}

func TestTaskProgress_MonotoneInDoneCount(t *testing.T) {
	tasks := make([]models.Task, 7)
	for i := range tasks {
		tasks[i] = taskWithStatus(models.TaskStatusPending)
	}

	prev := TaskProgress(tasks)
	require.Equal(t, 0, prev)

	for i := range tasks {
		tasks[i].Status = models.TaskStatusDone
		cur := TaskProgress(tasks)
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
	require.Equal(t, 100, prev)
}

func TestTimeProgress(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		now   time.Time
		want  int
	}{
		{"no start date", nil, &end, start, 0},
		{"no end date", &start, nil, start, 0},
		{"before start", &start, &end, start.Add(-time.Hour), 0},
		{"at start", &start, &end, start, 0},
		{"after end", &start, &end, end.Add(time.Hour), 100},
		{"zero-length window", &start, &start, start, 100},
		{"halfway", &start, &end, start.Add(5 * 24 * time.Hour), 50},
		{"sub-day precision", &start, &end, start.Add(36 * time.Hour), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TimeProgress(tt.start, tt.end, tt.now))
		})
	}
}

func TestTimeProgress_AlwaysInRange(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	for now := start.Add(-12 * time.Hour); now.Before(end.Add(12 * time.Hour)); now = now.Add(37 * time.Minute) {
		pct := TimeProgress(&start, &end, now)
		require.GreaterOrEqual(t, pct, 0)
		require.LessOrEqual(t, pct, 100)
	}
}
