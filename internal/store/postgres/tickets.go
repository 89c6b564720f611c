package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ewaste/internal/models"
	"ewaste/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ticketColumns = `
	t.ticket_id, t.user_id, u.name, t.subject, t.message, t.category,
	t.status, t.admin_reply, t.created_at, t.resolved_at`

func scanTicket(row pgx.Row) (models.SupportTicket, error) {
	var ticket models.SupportTicket
	var category, adminReply sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(&ticket.TicketID, &ticket.UserID, &ticket.UserName,
		&ticket.Subject, &ticket.Message, &category,
		&ticket.Status, &adminReply, &ticket.CreatedAt, &resolvedAt)
	if err != nil {
		return models.SupportTicket{}, err
	}

	ticket.Category = category.String
	ticket.AdminReply = adminReply.String
	if resolvedAt.Valid {
		t := resolvedAt.Time
		ticket.ResolvedAt = &t
	}
	return ticket, nil
}

func (s *Store) CreateTicket(ctx context.Context, input store.CreateTicketInput) (models.SupportTicket, error) {
	ticket := models.SupportTicket{
		TicketID:  uuid.NewString(),
		UserID:    input.UserID,
		Subject:   input.Subject,
		Message:   input.Message,
		Category:  input.Category,
		Status:    models.TicketOpen,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO support_tickets (ticket_id, user_id, subject, message, category, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ticket.TicketID, ticket.UserID, ticket.Subject, ticket.Message,
		nullIfEmpty(ticket.Category), ticket.Status, ticket.CreatedAt)
	if err != nil {
		return models.SupportTicket{}, err
	}
	return ticket, nil
}

func (s *Store) ListUserTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	return s.listTickets(ctx, `
		SELECT`+ticketColumns+`
		FROM support_tickets t JOIN users u ON u.user_id = t.user_id
		WHERE t.user_id = $1 ORDER BY t.created_at DESC
	`, userID)
}

func (s *Store) ListTickets(ctx context.Context) ([]models.SupportTicket, error) {
	return s.listTickets(ctx, `
		SELECT`+ticketColumns+`
		FROM support_tickets t JOIN users u ON u.user_id = t.user_id
		ORDER BY t.created_at DESC
	`)
}

func (s *Store) listTickets(ctx context.Context, query string, args ...interface{}) ([]models.SupportTicket, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.SupportTicket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// ReplyTicket resolves an open ticket. Resolved is terminal: a second reply
// fails with ErrTicketResolved.
func (s *Store) ReplyTicket(ctx context.Context, ticketID, reply string, resolvedAt time.Time) (models.SupportTicket, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE support_tickets
		SET status = $2, admin_reply = $3, resolved_at = $4
		WHERE ticket_id = $1 AND status = $5
	`, ticketID, models.TicketResolved, reply, resolvedAt.UTC(), models.TicketOpen)
	if err != nil {
		return models.SupportTicket{}, err
	}
	if tag.RowsAffected() == 0 {
		var status string
		row := s.pool.QueryRow(ctx, `SELECT status FROM support_tickets WHERE ticket_id = $1`, ticketID)
		if scanErr := row.Scan(&status); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return models.SupportTicket{}, store.ErrTicketNotFound
			}
			return models.SupportTicket{}, scanErr
		}
		return models.SupportTicket{}, store.ErrTicketResolved
	}

	row := s.pool.QueryRow(ctx, `
		SELECT`+ticketColumns+`
		FROM support_tickets t JOIN users u ON u.user_id = t.user_id
		WHERE t.ticket_id = $1
	`, ticketID)
	return scanTicket(row)
}
