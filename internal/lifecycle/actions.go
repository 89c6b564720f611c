package lifecycle

import "ewaste/internal/models"

// Action is a control a dashboard may expose for a request. The backend
// re-validates every mutation; this table only decides what a role gets to
// see and click for a given status.
type Action string

const (
	ActionView           Action = "view"
	ActionViewReason     Action = "view_reason"
	ActionViewReport     Action = "view_report"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionSchedule       Action = "schedule"
	ActionCall           Action = "call"
	ActionInitiateVerify Action = "initiate_verification"
	ActionVerifyComplete Action = "verify_complete"
)

var actionTable = map[string]map[string][]Action{
	models.StatusPending: {
		models.RoleUser:  {ActionView},
		models.RoleAdmin: {ActionApprove, ActionReject},
	},
	models.StatusApproved: {
		models.RoleUser:  {ActionView},
		models.RoleAdmin: {ActionSchedule},
	},
	models.StatusScheduled: {
		models.RoleUser:         {ActionView},
		models.RolePickupPerson: {ActionCall, ActionInitiateVerify},
	},
	models.StatusOnTheWay: {
		models.RoleUser:         {ActionView},
		models.RolePickupPerson: {ActionVerifyComplete},
	},
	models.StatusCompleted: {
		models.RoleUser:         {ActionViewReport},
		models.RoleAdmin:        {ActionView},
		models.RolePickupPerson: {ActionView},
	},
	models.StatusRejected: {
		models.RoleUser: {ActionViewReason},
	},
}

// AllowedActions returns the controls a role may be shown for a request in
// the given status. Unknown status/role pairs return nil, which callers must
// treat as "no controls", never as permission.
func AllowedActions(status, role string) []Action {
	byRole, ok := actionTable[status]
	if !ok {
		return nil
	}
	actions, ok := byRole[role]
	if !ok {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Allowed reports whether a single action appears in the table for the pair.
func Allowed(status, role string, action Action) bool {
	for _, a := range AllowedActions(status, role) {
		if a == action {
			return true
		}
	}
	return false
}
