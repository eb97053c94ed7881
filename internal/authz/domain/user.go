package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	MFASecret    string // base32 TOTP secret, empty when not enrolled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMFA reports whether a TOTP code is required at sign-in.
func (u *User) HasMFA() bool { return u.MFASecret != "" }
