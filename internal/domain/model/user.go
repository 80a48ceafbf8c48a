package model

import (
	"strings"
	"time"

	"content-commerce/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User binds an external identity to local records. All entitlement rows
// reference ExtUserID, not ID.
type User struct {
	ID        string
	ExtUserID string
	Username  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(extUserID, username, email string) (*User, error) {
	extUserID = strings.TrimSpace(extUserID)
	if extUserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:        uuid.NewString(),
		ExtUserID: extUserID,
		Username:  strings.TrimSpace(username),
		Email:     strings.TrimSpace(email),
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) IsZero() bool  { return u == nil || u.ID == "" }
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Refresh copies changed identity fields and reports whether anything changed.
func (u *User) Refresh(username, email string) bool {
	changed := false
	if username = strings.TrimSpace(username); username != "" && username != u.Username {
		u.Username = username
		changed = true
	}
	if email = strings.TrimSpace(email); email != "" && email != u.Email {
		u.Email = email
		changed = true
	}
	if changed {
		u.UpdatedAt = time.Now()
	}
	return changed
}

// Actor is the caller identity handed over by the identity provider.
type Actor struct {
	ExtUserID string
	Email     string
	Username  string
}

func (a Actor) Authenticated() bool { return a.ExtUserID != "" }
