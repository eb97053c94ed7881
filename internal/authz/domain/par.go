package domain

import (
	"strings"
	"time"
)

// PAR identifier prefixes. The external form is the request_uri handed to
// clients, the internal form is the storage id.
const (
	ParInternalPrefix = "par:"
	ParExternalPrefix = "urn:ietf:params:oauth:request_uri:"
)

// ParExternalID converts a storage id into a request_uri. Values without the
// internal prefix are returned unchanged.
func ParExternalID(internal string) string {
	if rest, ok := strings.CutPrefix(internal, ParInternalPrefix); ok {
		return ParExternalPrefix + rest
	}
	return internal
}

// ParInternalID converts a request_uri into a storage id. Values without the
// external prefix are returned unchanged.
func ParInternalID(external string) string {
	if rest, ok := strings.CutPrefix(external, ParExternalPrefix); ok {
		return ParInternalPrefix + rest
	}
	return external
}

// ParAttributes are the authorization parameters carried by a pushed request
// or a request object.
type ParAttributes struct {
	ClientID            string            `json:"client_id,omitempty"`
	ResponseType        string            `json:"response_type,omitempty"`
	RedirectURI         string            `json:"redirect_uri,omitempty"`
	Scope               string            `json:"scope,omitempty"`
	State               string            `json:"state,omitempty"`
	Nonce               string            `json:"nonce,omitempty"`
	Display             string            `json:"display,omitempty"`
	Prompt              string            `json:"prompt,omitempty"`
	MaxAge              string            `json:"max_age,omitempty"`
	ACRValues           string            `json:"acr_values,omitempty"`
	UILocales           string            `json:"ui_locales,omitempty"`
	LoginHint           string            `json:"login_hint,omitempty"`
	CodeChallenge       string            `json:"code_challenge,omitempty"`
	CodeChallengeMethod string            `json:"code_challenge_method,omitempty"`
	Claims              string            `json:"claims,omitempty"`
	ResponseMode        string            `json:"response_mode,omitempty"`
	CustomHeaders       map[string]string `json:"custom_response_headers,omitempty"`
	CustomParameters    map[string]string `json:"custom_parameters,omitempty"`

	// NBF and EXP come from a request object, in seconds since the epoch.
	NBF int64 `json:"nbf,omitempty"`
	EXP int64 `json:"exp,omitempty"`
}

// Par is a pushed authorization request.
type Par struct {
	ID         string
	ClientID   string
	Attributes ParAttributes
	ExpiresAt  time.Time
	Deletable  bool
	CreatedAt  time.Time
}

// IsExpired reports whether the record is past its expiration at now.
func (p *Par) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
