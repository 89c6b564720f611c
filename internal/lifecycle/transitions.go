package lifecycle

import "ewaste/internal/models"

// transitionMap lists the statuses a mutating action may be applied from.
// The request lifecycle is a single forward path with REJECTED reachable
// only from PENDING.
var transitionMap = map[string][]string{
	"approve":  {models.StatusPending},
	"reject":   {models.StatusPending},
	"schedule": {models.StatusApproved},
	"depart":   {models.StatusScheduled},
	"complete": {models.StatusOnTheWay},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// NextStatus resolves the status an action moves a request into.
func NextStatus(action string) (string, bool) {
	switch action {
	case "approve":
		return models.StatusApproved, true
	case "reject":
		return models.StatusRejected, true
	case "schedule":
		return models.StatusScheduled, true
	case "depart":
		return models.StatusOnTheWay, true
	case "complete":
		return models.StatusCompleted, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition can leave the status.
func Terminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusRejected
}
