package lifecycle

import "ewaste/internal/models"

// ProgressStep maps a status onto the five-stage progress indicator.
// REJECTED returns 0, the sentinel for a derailed request, not "not started".
func ProgressStep(status string) int {
	switch status {
	case models.StatusPending:
		return 1
	case models.StatusApproved:
		return 2
	case models.StatusScheduled:
		return 3
	case models.StatusOnTheWay:
		return 4
	case models.StatusCompleted:
		return 5
	default:
		return 0
	}
}
