package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/storelink/chat-server-go/internal/model"
)

// UserDirectory is a read-only view of the platform's identity store.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)
	FindByUsername(ctx context.Context, username string) (*model.UserProfile, error)
	UsersWithAnyOfRoles(ctx context.Context, roles []string) ([]model.UserProfile, error)
}

type userDirectory struct {
	db *sqlx.DB
}

func NewUserDirectory(db *sqlx.DB) UserDirectory {
	return &userDirectory{db: db}
}

func (r *userDirectory) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userDirectory) FindByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	var user model.UserProfile
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users WHERE username = $1
	`, username)
	return HandleNotFound(&user, err)
}

func (r *userDirectory) UsersWithAnyOfRoles(ctx context.Context, roles []string) ([]model.UserProfile, error) {
	var users []model.UserProfile
	err := r.db.SelectContext(ctx, &users, `
		SELECT DISTINCT u.id, u.username, u.display_name, u.avatar_url, u.created_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role = ANY($1)
		ORDER BY u.username ASC
	`, pq.Array(roles))
	return users, err
}
