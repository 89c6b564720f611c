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

func (s *Store) RegisterUser(ctx context.Context, input store.RegisterUserInput) (models.User, error) {
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		UserID:      uuid.NewString(),
		Name:        input.Name,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
		Role:        role,
		Status:      models.UserActive,
		CreatedAt:   time.Now().UTC(),
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, email, phone_number, address, role, status, password_hash, created_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
	`, user.UserID, user.Name, user.Email, nullIfEmpty(user.PhoneNumber),
		nullIfEmpty(user.Address), user.Role, user.Status, input.PasswordHash, user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, store.ErrEmailTaken
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	var user models.User
	var passwordHash string
	var phone, address sql.NullString
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, email, phone_number, address, role, status, password_hash, created_at
		FROM users WHERE email = lower($1)
	`, email)
	err := row.Scan(&user.UserID, &user.Name, &user.Email, &phone, &address,
		&user.Role, &user.Status, &passwordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, "", store.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, "", err
	}
	user.PhoneNumber = phone.String
	user.Address = address.String
	return user, passwordHash, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	var phone, address sql.NullString
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, name, email, phone_number, address, role, status, created_at
		FROM users WHERE user_id = $1
	`, userID)
	err := row.Scan(&user.UserID, &user.Name, &user.Email, &phone, &address,
		&user.Role, &user.Status, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, store.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	user.PhoneNumber = phone.String
	user.Address = address.String
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, name, email, phone_number, address, role, status, created_at
		FROM users WHERE role = $1 ORDER BY created_at DESC
	`, models.RoleUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var phone, address sql.NullString
		if err := rows.Scan(&user.UserID, &user.Name, &user.Email, &phone, &address,
			&user.Role, &user.Status, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.PhoneNumber = phone.String
		user.Address = address.String
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserStatus(ctx context.Context, userID, status string) error {
	if status != models.UserActive && status != models.UserInactive {
		return store.ErrInvalidStatus
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET status = $2 WHERE user_id = $1`, userID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, input store.UpdateProfileInput) (models.User, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    phone_number = COALESCE(NULLIF($3, ''), phone_number),
		    address = COALESCE(NULLIF($4, ''), address),
		    password_hash = COALESCE(NULLIF($5, ''), password_hash)
		WHERE user_id = $1
	`, input.UserID, input.Name, input.PhoneNumber, input.Address, input.NewPasswordHash)
	if err != nil {
		return models.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, store.ErrUserNotFound
	}
	return s.GetUser(ctx, input.UserID)
}

func (s *Store) PasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string
	row := s.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE user_id = $1`, userID)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrUserNotFound
		}
		return "", err
	}
	return hash, nil
}

func (s *Store) ListPickupPersons(ctx context.Context) ([]models.PickupPerson, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.user_id, u.name, u.email, u.phone_number, u.status, u.created_at,
		       p.vehicle_number, p.vehicle_type
		FROM users u
		JOIN pickup_persons p ON p.user_id = u.user_id
		WHERE u.role = $1
		ORDER BY u.name ASC
	`, models.RolePickupPerson)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []models.PickupPerson
	for rows.Next() {
		var person models.PickupPerson
		var phone sql.NullString
		if err := rows.Scan(&person.UserID, &person.Name, &person.Email, &phone,
			&person.Status, &person.CreatedAt, &person.VehicleNumber, &person.VehicleType); err != nil {
			return nil, err
		}
		person.PhoneNumber = phone.String
		person.Role = models.RolePickupPerson
		persons = append(persons, person)
	}
	return persons, rows.Err()
}

func (s *Store) OnboardPickupPerson(ctx context.Context, input store.OnboardPickupPersonInput) (models.PickupPerson, error) {
	input.Role = models.RolePickupPerson

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.PickupPerson{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	user := models.User{
		UserID:      uuid.NewString(),
		Name:        input.Name,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Role:        models.RolePickupPerson,
		Status:      models.UserActive,
		CreatedAt:   time.Now().UTC(),
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, name, email, phone_number, address, role, status, password_hash, created_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
	`, user.UserID, user.Name, user.Email, nullIfEmpty(user.PhoneNumber),
		nullIfEmpty(input.Address), user.Role, user.Status, input.PasswordHash, user.CreatedAt)
	if err != nil {
		return models.PickupPerson{}, err
	}
	if tag.RowsAffected() == 0 {
		err = store.ErrEmailTaken
		return models.PickupPerson{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pickup_persons (user_id, vehicle_number, vehicle_type)
		VALUES ($1, $2, $3)
	`, user.UserID, input.VehicleNumber, input.VehicleType)
	if err != nil {
		return models.PickupPerson{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.PickupPerson{}, err
	}

	return models.PickupPerson{
		User:          user,
		VehicleNumber: input.VehicleNumber,
		VehicleType:   input.VehicleType,
	}, nil
}

func (s *Store) DashboardSummary(ctx context.Context) (models.DashboardSummary, error) {
	summary := models.DashboardSummary{
		StatusStats: map[string]int{},
		DeviceStats: map[string]int{},
	}

	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = $1),
			(SELECT COUNT(*) FROM users WHERE role = $2),
			(SELECT COUNT(*) FROM requests)
	`, models.RoleUser, models.RolePickupPerson)
	if err := row.Scan(&summary.TotalUsers, &summary.TotalPickupPersons, &summary.TotalRequests); err != nil {
		return models.DashboardSummary{}, err
	}

	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.DashboardSummary{}, err
		}
		summary.StatusStats[status] = count
	}
	if err := rows.Err(); err != nil {
		return models.DashboardSummary{}, err
	}

	deviceRows, err := s.pool.Query(ctx, `
		SELECT COALESCE(NULLIF(device_type, ''), 'Unknown'), COUNT(*)
		FROM requests GROUP BY 1
	`)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	defer deviceRows.Close()
	for deviceRows.Next() {
		var device string
		var count int
		if err := deviceRows.Scan(&device, &count); err != nil {
			return models.DashboardSummary{}, err
		}
		summary.DeviceStats[device] = count
	}
	return summary, deviceRows.Err()
}
