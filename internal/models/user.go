package models

import "strings"

type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsBanned     bool   `json:"is_banned"`
}

// Access is the outcome of the ban and admin checks for a resolved identity.
// Admin is only evaluated for users that are not banned.
type Access struct {
	UserID int64
	Banned bool
	Admin  bool
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserEmailRequest is the form body of the admin ban/unban/promote/demote endpoints.
type UserEmailRequest struct {
	Email string `json:"email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *RegisterRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *LoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r *UserEmailRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}
