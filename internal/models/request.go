package models

import "time"

type Request struct {
	RequestID           string     `json:"request_id"`
	UserID              string     `json:"user_id"`
	UserName            string     `json:"user_name,omitempty"`
	UserEmail           string     `json:"user_email,omitempty"`
	DeviceType          string     `json:"device_type"`
	Brand               string     `json:"brand"`
	Model               string     `json:"model"`
	Quantity            int        `json:"quantity"`
	Condition           string     `json:"condition"`
	PickupAddress       string     `json:"pickup_address"`
	Remarks             string     `json:"remarks,omitempty"`
	ImageURLs           []string   `json:"image_urls,omitempty"`
	Status              string     `json:"status"`
	RejectionReason     string     `json:"rejection_reason,omitempty"`
	ScheduledPickupDate *time.Time `json:"scheduled_pickup_date,omitempty"`
	PickupPersonID      *string    `json:"pickup_person_id,omitempty"`
	PickupPersonName    string     `json:"pickup_person_name,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusScheduled = "SCHEDULED"
	StatusOnTheWay  = "ON_THE_WAY"
	StatusCompleted = "COMPLETED"
	StatusRejected  = "REJECTED"
)

const (
	ConditionWorking          = "WORKING"
	ConditionPartiallyWorking = "PARTIALLY_WORKING"
	ConditionDead             = "DEAD"
)
