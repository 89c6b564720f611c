package models

import "time"

type User struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// PickupPerson wraps a User with vehicle details used for assignment.
type PickupPerson struct {
	User
	VehicleNumber string `json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type"`
}

const (
	RoleUser         = "ROLE_USER"
	RoleAdmin        = "ROLE_ADMIN"
	RolePickupPerson = "ROLE_PICKUP_PERSON"
)

const (
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"
)
