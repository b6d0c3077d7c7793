package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/amamusic/accademia/internal/models"
)

func ListRooms(ctx context.Context, database *sql.DB) ([]models.Room, error) {
	rows, err := database.QueryContext(ctx, `SELECT id, name FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func CreateRoom(ctx context.Context, database *sql.DB, name string) (*models.Room, error) {
	var r models.Room
	err := database.QueryRowContext(ctx,
		`INSERT INTO rooms (name) VALUES ($1) RETURNING id, name`,
		strings.TrimSpace(name)).Scan(&r.ID, &r.Name)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateRoom
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func RenameRoom(ctx context.Context, database *sql.DB, id int64, name string) (*models.Room, error) {
	var r models.Room
	err := database.QueryRowContext(ctx,
		`UPDATE rooms SET name = $1 WHERE id = $2 RETURNING id, name`,
		strings.TrimSpace(name), id).Scan(&r.ID, &r.Name)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateRoom
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func DeleteRoom(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
