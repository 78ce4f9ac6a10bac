package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/NassaQ/server/internal/auth"
)

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users (username, email, password_hash, role_id)
		values ($1, $2, $3, $4)
		returning user_id, created_at
	`, u.Username, u.Email, u.PasswordHash, u.RoleID).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *userStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		select user_id, username, email, password_hash, role_id, created_at
		from users where user_id = $1
	`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		select user_id, username, email, password_hash, role_id, created_at
		from users where email = $1
	`, email))
}

func (s *userStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `select 1 from users where email = $1`, email)
}

func (s *userStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `select 1 from users where username = $1`, username)
}

func (s *userStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *userStore) scanOne(row *sql.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
