package resolver

import (
	"strings"

	"github.com/desertthunder/svbridge/internal/models"
)

// NormalizeStatus folds a generator status into one of four buckets. Unknown and empty input is queued.
func NormalizeStatus(raw string) models.TaskStatus {
	switch strings.ToLower(raw) {
	case "processing":
		return models.TaskProcessing
	case "completed":
		return models.TaskCompleted
	case "failed", "cancelled", "cancelling":
		return models.TaskFailed
	default:
		return models.TaskQueued
	}
}
