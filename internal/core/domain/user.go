package domain

import "time"

// Status values are free-form; StatusActive is the one assigned on creation.
const StatusActive = "Active"

// User models a persisted account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Email        string
	Name         string
	Address      string
	Bio          string
	PhoneNumber  string
	Status       string
	LastLogin    *time.Time
	Avatar       string
}

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

// IsAdmin reports whether the identity holds the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// Today returns t truncated to its UTC calendar date.
func Today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
