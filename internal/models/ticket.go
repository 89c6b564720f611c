package models

import "time"

type SupportTicket struct {
	TicketID   string     `json:"ticket_id"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name,omitempty"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Category   string     `json:"category,omitempty"`
	Status     string     `json:"status"`
	AdminReply string     `json:"admin_reply,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

const (
	TicketOpen     = "OPEN"
	TicketResolved = "RESOLVED"
)
