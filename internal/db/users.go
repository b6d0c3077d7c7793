package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/amamusic/accademia/internal/models"
)

func GetUserByUsername(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role FROM users WHERE LOWER(username) = $1`,
		strings.ToLower(strings.TrimSpace(username)))
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func CreateUser(ctx context.Context, database *sql.DB, username, passwordHash string, role models.Role) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING`,
		strings.ToLower(strings.TrimSpace(username)), passwordHash, role)
	return err
}

func ListUsers(ctx context.Context, database *sql.DB) ([]models.User, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, username, role FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// EnsureAdmin creates the bootstrap administrator account if it is missing.
// Called once at startup; an existing account is left untouched.
func EnsureAdmin(ctx context.Context, database *sql.DB, username, passwordHash string) error {
	return CreateUser(ctx, database, username, passwordHash, models.Admin)
}
