package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// ErrDuplicateEmail is returned by Users.Create when the email is already
// registered (unique index on LOWER(email)).
var ErrDuplicateEmail = errors.New("email already registered")

// Users is the Postgres-backed credential store. Reads exclude the password
// hash unless the WithHash variant is used.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

const userCols = `id, name, email, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns the user for email (case-insensitive), or nil when
// no user matches.
func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

// FindByEmailWithHash is FindByEmail including the password hash, for
// credential verification only.
func (s *Users) FindByEmailWithHash(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID returns the user for id, or nil when no user matches.
func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByIDWithHash is FindByID including the password hash.
func (s *Users) FindByIDWithHash(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with an already-hashed password. Returns
// ErrDuplicateEmail when the email is taken.
func (s *Users) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, passwordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		logger.Error(ctx, "Repository user create failed", "error", err)
		return nil, err
	}
	return u, nil
}

// ListBasic returns every user's name and email, for the compose directory.
func (s *Users) ListBasic(ctx context.Context) ([]models.BasicUser, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, email FROM users ORDER BY name`)
	if err != nil {
		logger.Error(ctx, "Repository user list failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	var users []models.BasicUser
	for rows.Next() {
		var u models.BasicUser
		if err := rows.Scan(&u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
