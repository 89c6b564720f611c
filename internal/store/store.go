package store

import (
	"context"
	"time"

	"ewaste/internal/models"
)

type CreateRequestInput struct {
	UserID        string
	DeviceType    string
	Brand         string
	Model         string
	Quantity      int
	Condition     string
	PickupAddress string
	Remarks       string
	ImageURLs     []string
	CreatedAt     time.Time
}

type UpdateStatusInput struct {
	RequestID       string
	Action          string
	RejectionReason string
	OccurredAt      time.Time
}

type ScheduleInput struct {
	RequestID      string
	PickupDate     time.Time
	PickupPersonID string
}

type RegisterUserInput struct {
	Name         string
	Email        string
	PhoneNumber  string
	Address      string
	PasswordHash string
	Role         string
}

type OnboardPickupPersonInput struct {
	RegisterUserInput
	VehicleNumber string
	VehicleType   string
}

type UpdateProfileInput struct {
	UserID          string
	Name            string
	PhoneNumber     string
	Address         string
	NewPasswordHash string
}

type CreateTicketInput struct {
	UserID   string
	Subject  string
	Message  string
	Category string
}

type RequestStore interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (models.Request, error)
	GetRequest(ctx context.Context, requestID string) (models.Request, error)
	ListRequests(ctx context.Context) ([]models.Request, error)
	ListUserRequests(ctx context.Context, userID string) ([]models.Request, error)
	ListAssignedRequests(ctx context.Context, pickupPersonID string) ([]models.Request, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (models.Request, error)
	SchedulePickup(ctx context.Context, input ScheduleInput) (models.Request, error)
	UserRequestStats(ctx context.Context, userID string) (models.RequestStats, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
}

type UserStore interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, userID, status string) error
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (models.User, error)
	PasswordHash(ctx context.Context, userID string) (string, error)
	ListPickupPersons(ctx context.Context) ([]models.PickupPerson, error)
	OnboardPickupPerson(ctx context.Context, input OnboardPickupPersonInput) (models.PickupPerson, error)
	DashboardSummary(ctx context.Context) (models.DashboardSummary, error)
}

type TicketStore interface {
	CreateTicket(ctx context.Context, input CreateTicketInput) (models.SupportTicket, error)
	ListUserTickets(ctx context.Context, userID string) ([]models.SupportTicket, error)
	ListTickets(ctx context.Context) ([]models.SupportTicket, error)
	ReplyTicket(ctx context.Context, ticketID, reply string, resolvedAt time.Time) (models.SupportTicket, error)
}

// Store is the full persistence surface the HTTP layer depends on.
type Store interface {
	RequestStore
	UserStore
	TicketStore
}
