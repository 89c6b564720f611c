package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ewaste/internal/lifecycle"
	"ewaste/internal/models"
	"ewaste/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const requestColumns = `
	r.request_id, r.user_id, u.name, u.email,
	r.device_type, r.brand, r.model, r.quantity, r.condition,
	r.pickup_address, r.remarks, r.image_urls,
	r.status, r.rejection_reason, r.scheduled_pickup_date,
	r.pickup_person_id, COALESCE(p.name, ''),
	r.created_at, r.completed_at`

const requestJoins = `
	FROM requests r
	JOIN users u ON u.user_id = r.user_id
	LEFT JOIN users p ON p.user_id = r.pickup_person_id`

func scanRequest(row pgx.Row) (models.Request, error) {
	var r models.Request
	var remarks, rejectionReason, imageURLs sql.NullString
	var scheduled, completed sql.NullTime
	var pickupPersonID sql.NullString

	err := row.Scan(
		&r.RequestID, &r.UserID, &r.UserName, &r.UserEmail,
		&r.DeviceType, &r.Brand, &r.Model, &r.Quantity, &r.Condition,
		&r.PickupAddress, &remarks, &imageURLs,
		&r.Status, &rejectionReason, &scheduled,
		&pickupPersonID, &r.PickupPersonName,
		&r.CreatedAt, &completed,
	)
	if err != nil {
		return models.Request{}, err
	}

	r.Remarks = remarks.String
	r.RejectionReason = rejectionReason.String
	if imageURLs.String != "" {
		r.ImageURLs = strings.Split(imageURLs.String, ",")
	}
	if scheduled.Valid {
		t := scheduled.Time
		r.ScheduledPickupDate = &t
	}
	if pickupPersonID.Valid {
		id := pickupPersonID.String
		r.PickupPersonID = &id
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return r, nil
}

func (s *Store) CreateRequest(ctx context.Context, input store.CreateRequestInput) (models.Request, error) {
	requestID := uuid.NewString()
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO requests (
			request_id, user_id, device_type, brand, model, quantity, condition,
			pickup_address, remarks, image_urls, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, requestID, input.UserID, input.DeviceType, input.Brand, input.Model,
		input.Quantity, input.Condition, input.PickupAddress,
		nullIfEmpty(input.Remarks), nullIfEmpty(strings.Join(input.ImageURLs, ",")),
		models.StatusPending, createdAt)
	if err != nil {
		return models.Request{}, err
	}

	return s.GetRequest(ctx, requestID)
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (models.Request, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+requestColumns+requestJoins+` WHERE r.request_id = $1`, requestID)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Request{}, store.ErrRequestNotFound
	}
	if err != nil {
		return models.Request{}, err
	}
	return request, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]models.Request, error) {
	return s.listRequests(ctx, `SELECT`+requestColumns+requestJoins+` ORDER BY r.created_at DESC`)
}

func (s *Store) ListUserRequests(ctx context.Context, userID string) ([]models.Request, error) {
	return s.listRequests(ctx, `SELECT`+requestColumns+requestJoins+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID)
}

func (s *Store) ListAssignedRequests(ctx context.Context, pickupPersonID string) ([]models.Request, error) {
	return s.listRequests(ctx, `SELECT`+requestColumns+requestJoins+`
		WHERE r.pickup_person_id = $1 AND r.status IN ($2, $3)
		ORDER BY r.scheduled_pickup_date ASC`,
		pickupPersonID, models.StatusScheduled, models.StatusOnTheWay)
}

func (s *Store) listRequests(ctx context.Context, query string, args ...interface{}) ([]models.Request, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// UpdateStatus applies a lifecycle action after checking the transition table
// against the current status inside the same transaction.
func (s *Store) UpdateStatus(ctx context.Context, input store.UpdateStatusInput) (models.Request, error) {
	newStatus, ok := lifecycle.NextStatus(input.Action)
	if !ok {
		return models.Request{}, store.ErrInvalidState
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Request{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var currentStatus string
	row := tx.QueryRow(ctx, `SELECT status FROM requests WHERE request_id = $1 FOR UPDATE`, input.RequestID)
	if err = row.Scan(&currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRequestNotFound
		}
		return models.Request{}, err
	}

	if !lifecycle.ValidTransition(input.Action, currentStatus) {
		err = store.ErrInvalidState
		return models.Request{}, err
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var completedAt interface{}
	if newStatus == models.StatusCompleted {
		completedAt = occurredAt
	}

	_, err = tx.Exec(ctx, `
		UPDATE requests
		SET status = $2,
		    rejection_reason = COALESCE($3, rejection_reason),
		    completed_at = COALESCE($4, completed_at)
		WHERE request_id = $1
	`, input.RequestID, newStatus, nullIfEmpty(input.RejectionReason), completedAt)
	if err != nil {
		return models.Request{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Request{}, err
	}

	return s.GetRequest(ctx, input.RequestID)
}

func (s *Store) SchedulePickup(ctx context.Context, input store.ScheduleInput) (models.Request, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Request{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var currentStatus string
	row := tx.QueryRow(ctx, `SELECT status FROM requests WHERE request_id = $1 FOR UPDATE`, input.RequestID)
	if err = row.Scan(&currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRequestNotFound
		}
		return models.Request{}, err
	}
	if !lifecycle.ValidTransition("schedule", currentStatus) {
		err = store.ErrInvalidState
		return models.Request{}, err
	}

	var exists bool
	row = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE user_id = $1 AND role = $2 AND status = $3
		)
	`, input.PickupPersonID, models.RolePickupPerson, models.UserActive)
	if err = row.Scan(&exists); err != nil {
		return models.Request{}, err
	}
	if !exists {
		err = store.ErrPickupPersonNotFound
		return models.Request{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE requests
		SET status = $2, scheduled_pickup_date = $3, pickup_person_id = $4
		WHERE request_id = $1
	`, input.RequestID, models.StatusScheduled, input.PickupDate.UTC(), input.PickupPersonID)
	if err != nil {
		return models.Request{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Request{}, err
	}

	return s.GetRequest(ctx, input.RequestID)
}

func (s *Store) UserRequestStats(ctx context.Context, userID string) (models.RequestStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM requests WHERE user_id = $1 GROUP BY status
	`, userID)
	if err != nil {
		return models.RequestStats{}, err
	}
	defer rows.Close()

	stats := models.RequestStats{ByStatus: map[string]int{}}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.RequestStats{}, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func (s *Store) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests WHERE user_id = $1 AND status = $2
	`, userID, models.StatusCompleted)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
