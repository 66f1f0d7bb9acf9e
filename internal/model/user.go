package model

import "time"

// UserProfile is the directory view of a platform user. Accounts are owned
// by the identity subsystem; this server only reads them.
type UserProfile struct {
	ID          string    `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"displayName"`
	AvatarURL   *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	Roles       []string  `db:"-" json:"roles,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
