package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrInvalidScope            = errors.New("invalid_scope")
	ErrInvalidToken            = errors.New("invalid_token")
	ErrInvalidRequestObject    = errors.New("invalid_request_object")
	ErrInvalidRequestURI       = errors.New("invalid_request_uri")
	ErrUnauthorizedClient      = errors.New("unauthorized_client")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrInvalidDPoPProof        = errors.New("invalid_dpop_proof")
	ErrAccessDenied            = errors.New("access_denied")
	ErrLoginRequired           = errors.New("login_required")

	// ErrNotImplemented answers extension grant types (HTTP 501).
	ErrNotImplemented = errors.New("not_implemented")

	// ErrInvalidCredentials means a user password or TOTP check failed.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrClientMissing means the request carried no client identification.
	// Callers decide which OAuth error it becomes.
	ErrClientMissing = errors.New("client_missing")
)

// Error is a classified failure with a description that is safe to show
// to the client. State is echoed back on authorization errors.
type Error struct {
	Kind        error
	Description string
	State       string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

// withState attaches state to err, wrapping bare sentinels.
func withState(err error, state string) error {
	if err == nil || state == "" {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.State = state
		return &c
	}
	return &Error{Kind: err, State: state}
}

// Description returns the client-safe description carried by err, if any.
func Description(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Description
	}
	return ""
}

// State returns the authorization state carried by err, if any.
func State(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.State
	}
	return ""
}
