package store

import (
	"context"

	users "github.com/AdamBeresnev/cupmaker/internal/user"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	userColumns = "id, email, username, password_hash, provider, provider_id, avatar_url, is_guest, created_at"

	getUserQuery           = "SELECT " + userColumns + " FROM users WHERE id = ?"
	getUserByProviderQuery = `
		SELECT ` + userColumns + ` FROM users
		WHERE provider = ?
		AND provider_id = ?
	`
	getLocalUserQuery = `
		SELECT ` + userColumns + ` FROM users
		WHERE username = ?
		AND password_hash IS NOT NULL
	`
	createUserQuery = `
		INSERT INTO users (id, email, username, password_hash, provider, provider_id, avatar_url, is_guest, created_at) VALUES
		(:id, :email, :username, :password_hash, :provider, :provider_id, :avatar_url, :is_guest, :created_at)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetLocalUser finds a username/password account. OAuth and guest users may share the name.
func (s *UserStore) GetLocalUser(ctx context.Context, username string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getLocalUserQuery, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id interface{}) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}
