package user

import (
	"context"
	"database/sql"
	"errors"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateUser(ctx context.Context, u *User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, is_admin, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsAdmin, u.IsActive).
		Scan(&u.ID, &u.CreatedAt)
}

func (r *postgresRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, is_admin, is_active, created_at
		FROM users WHERE id=$1`, id))
}

func (r *postgresRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, is_admin, is_active, created_at
		FROM users WHERE username=$1`, username))
}

func (r *postgresRepo) scan(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsAdmin, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
