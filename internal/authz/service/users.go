package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pquerna/otp/totp"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// Authentication method references recorded on grants.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
)

// UserAuthenticator checks a user's password and then, for users enrolled
// in TOTP, the one-time code.
type UserAuthenticator struct {
	Store store.Store
}

// Authentication is a successful sign-in.
type Authentication struct {
	User domain.User
	AMR  []string
}

// Authenticate returns ErrInvalidCredentials for an unknown user, a wrong
// password or a missing or wrong TOTP code.
func (a *UserAuthenticator) Authenticate(ctx context.Context, username, password, otp string) (Authentication, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Authentication{}, ErrInvalidCredentials
	}

	u, err := a.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("user not found", slog.String("username", username))
			return Authentication{}, ErrInvalidCredentials
		}
		return Authentication{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", u.ID))
		return Authentication{}, ErrInvalidCredentials
	}

	amr := []string{AMRPassword}
	if u.HasMFA() {
		otp = strings.TrimSpace(otp)
		if otp == "" || !totp.Validate(otp, u.MFASecret) {
			l.Info("totp verification failed", slog.String("user_id", u.ID))
			return Authentication{}, ErrInvalidCredentials
		}
		amr = append(amr, AMROTP)
	}

	return Authentication{User: u, AMR: amr}, nil
}
