package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

const userColumns = `id, email, password, username`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.Password, u.Username)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.Username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}
