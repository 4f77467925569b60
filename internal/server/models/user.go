// Package models holds the persisted record types shared by repositories
// and services.
package models

import "time"

// User is an account credential record. PasswordHash is a bcrypt hash and is
// never logged or returned to clients.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
