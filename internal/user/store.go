package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecgard/mentorsync/internal/apperr"
	"github.com/alecgard/mentorsync/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Errors returned by the store.
var (
	ErrNotFound   = apperr.NotFound("User not found")
	ErrEmailTaken = apperr.Conflict("Email already registered")
)

const userColumns = `id, name, email, password_hash, user_type, mentor_id,
	team_name, current_position, office_location, is_active, created_at, updated_at`

// Store provides database operations for users.
type Store struct {
	*queries
	pool *pgxpool.Pool
}

// NewStore creates a new user store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{queries: &queries{db: pool}, pool: pool}
}

// InTx runs fn with queries bound to a single transaction.
func (s *Store) InTx(ctx context.Context, fn func(Queries) error) error {
	return database.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{db: tx})
	})
}

type queries struct {
	db database.DBTX
}

// scanUser scans a user row, translating a missing row to ErrNotFound.
func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.MentorID,
		&u.TeamName, &u.CurrentPosition, &u.OfficeLocation, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return u, nil
}

// Insert creates a user row. A duplicate email yields ErrEmailTaken.
func (q *queries) Insert(ctx context.Context, in NewUser) (*User, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, user_type, mentor_id,
		                    team_name, current_position, office_location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		in.Name, in.Email, in.PasswordHash, string(in.Role), in.MentorID,
		in.TeamName, in.CurrentPosition, in.OfficeLocation,
	)
	u, err := scanUser(row)
	if database.IsUniqueViolation(err, "users_email_key") {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (q *queries) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, err
}

// GetByEmail retrieves a user by exact, case-sensitive email match.
func (q *queries) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, err
}

// ListMentees returns the active users linked to mentorID.
func (q *queries) ListMentees(ctx context.Context, mentorID int64) ([]*User, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE mentor_id = $1 AND is_active
		 ORDER BY id`, mentorID)
	if err != nil {
		return nil, fmt.Errorf("listing mentees: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mentee row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetActive flips the active flag and refreshes updated_at.
func (q *queries) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	u, err := scanUser(q.db.QueryRow(ctx,
		`UPDATE users SET is_active = $1, updated_at = now()
		 WHERE id = $2
		 RETURNING `+userColumns, active, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, err
}
