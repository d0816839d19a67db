package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/storage/postgres"
)

const uniqueViolation = "23505"

// UserRepository provides persistence operations for users.
type UserRepository struct {
	q postgres.Querier
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create inserts a new user with an already-hashed password.
func (r *UserRepository) Create(ctx context.Context, fullName, email, passwordHash, role string) (*domain.User, error) {
	const q = `
INSERT INTO users (full_name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, full_name, email, password_hash, role, created_at, updated_at;
`
	var u domain.User
	err := r.q.QueryRowContext(ctx, q, fullName, email, passwordHash, role).
		Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
SELECT id, full_name, email, password_hash, role, created_at, updated_at
FROM users
WHERE email = $1;
`
	return r.scanOne(r.q.QueryRowContext(ctx, q, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `
SELECT id, full_name, email, password_hash, role, created_at, updated_at
FROM users
WHERE id = $1;
`
	return r.scanOne(r.q.QueryRowContext(ctx, q, id))
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	const q = `
SELECT id, full_name, email, password_hash, role, created_at, updated_at
FROM users
ORDER BY created_at DESC;
`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
