package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email,omitempty"`
	Username     string    `db:"username" json:"username"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Provider     *string   `db:"provider" json:"provider,omitempty"`
	ProviderID   *string   `db:"provider_id" json:"-"`
	AvatarURL    *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsGuest      bool      `db:"is_guest" json:"isGuest"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// IsLocal reports whether the account signs in with a username and password
func (u *User) IsLocal() bool {
	return u.PasswordHash != nil
}
