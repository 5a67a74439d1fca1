package models

import (
	"regexp"
	"unicode"
)

// Role represents the two account roles the portal knows about.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "etudiant"
)

// Valid reports whether the role is part of the closed enumeration.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Session is the client's cached authenticated identity plus credential
// token. It is owned exclusively by the session store.
type Session struct {
	UserID      int    `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Token       string `json:"token"`
}

// Valid enforces the session invariant: a usable session always carries a
// non-empty token and an enumerated role.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Role.Valid()
}

// User is the identity the server resolves for /users/{id}.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"nom"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the student sign-up payload.
type Registration struct {
	Name     string `json:"nom" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail applies the portal's lightweight email shape check.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword returns the list of policy violations for a candidate
// password: at least six characters, one uppercase letter and one digit.
func ValidatePassword(password string) []string {
	var violations []string
	if len(password) < 6 {
		violations = append(violations, "password must contain at least 6 characters")
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	return violations
}
