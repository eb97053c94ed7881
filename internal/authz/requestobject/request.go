// Package requestobject validates JWT-secured authorization requests
// (signed, or signed then encrypted) and merges their parameters into an
// authorization request.
package requestobject

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	josejwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
)

// Request is the decoded view of a validated request object.
type Request struct {
	domain.ParAttributes

	Issuer   string
	Audience []string
	JTI      string

	// HasRequestURI is set when the object carried a request_uri claim.
	HasRequestURI bool
}

// knownClaims are not copied into custom parameters.
var knownClaims = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
	"client_id": {}, "response_type": {}, "redirect_uri": {}, "scope": {},
	"state": {}, "nonce": {}, "display": {}, "prompt": {}, "max_age": {},
	"acr_values": {}, "ui_locales": {}, "login_hint": {}, "code_challenge": {},
	"code_challenge_method": {}, "claims": {}, "response_mode": {}, "request_uri": {},
	"request": {},
}

// decodeClaims builds a Request from a verified JSON payload.
func decodeClaims(payload []byte) (*Request, error) {
	var registered josejwt.Claims
	if err := json.Unmarshal(payload, &registered); err != nil {
		return nil, fmt.Errorf("%w: registered claims: %v", ErrMalformed, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrMalformed, err)
	}

	r := &Request{
		Issuer:   registered.Issuer,
		Audience: []string(registered.Audience),
		JTI:      registered.ID,
	}
	if registered.Expiry != nil {
		r.EXP = int64(*registered.Expiry)
	}
	if registered.NotBefore != nil {
		r.NBF = int64(*registered.NotBefore)
	}
	_, r.HasRequestURI = raw["request_uri"]

	a := &r.ParAttributes
	for name, dst := range map[string]*string{
		"client_id":             &a.ClientID,
		"response_type":         &a.ResponseType,
		"redirect_uri":          &a.RedirectURI,
		"scope":                 &a.Scope,
		"state":                 &a.State,
		"nonce":                 &a.Nonce,
		"display":               &a.Display,
		"prompt":                &a.Prompt,
		"max_age":               &a.MaxAge,
		"acr_values":            &a.ACRValues,
		"ui_locales":            &a.UILocales,
		"login_hint":            &a.LoginHint,
		"code_challenge":        &a.CodeChallenge,
		"code_challenge_method": &a.CodeChallengeMethod,
		"response_mode":         &a.ResponseMode,
	} {
		v, ok := raw[name]
		if !ok {
			continue
		}
		s, err := claimString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
		}
		*dst = s
	}

	// claims is a JSON object and is kept verbatim.
	if v, ok := raw["claims"]; ok && string(v) != "null" {
		if s, err := claimString(v); err == nil {
			a.Claims = s
		} else {
			a.Claims = string(v)
		}
	}

	for name, v := range raw {
		if _, known := knownClaims[name]; known {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if a.CustomParameters == nil {
			a.CustomParameters = map[string]string{}
		}
		a.CustomParameters[name] = s
	}

	return r, nil
}

// claimString accepts strings, numbers and arrays of strings. Arrays are
// joined with spaces.
func claimString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return n.String(), nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, " "), nil
	}
	return "", fmt.Errorf("unsupported value %s", v)
}

// Merge copies every non-blank value of ro into dst. Blank values in ro
// leave dst untouched, so a partial request object only moves the fields it
// carries.
func Merge(dst *domain.ParAttributes, ro *Request) {
	if ro == nil {
		return
	}
	src := ro.ParAttributes

	set := func(d *string, s string) {
		if strings.TrimSpace(s) != "" {
			*d = s
		}
	}
	set(&dst.ClientID, src.ClientID)
	set(&dst.ResponseType, src.ResponseType)
	set(&dst.RedirectURI, src.RedirectURI)
	set(&dst.Scope, src.Scope)
	set(&dst.State, src.State)
	set(&dst.Nonce, src.Nonce)
	set(&dst.Display, src.Display)
	set(&dst.Prompt, src.Prompt)
	set(&dst.MaxAge, src.MaxAge)
	set(&dst.ACRValues, src.ACRValues)
	set(&dst.UILocales, src.UILocales)
	set(&dst.LoginHint, src.LoginHint)
	set(&dst.CodeChallenge, src.CodeChallenge)
	set(&dst.CodeChallengeMethod, src.CodeChallengeMethod)
	set(&dst.Claims, src.Claims)
	set(&dst.ResponseMode, src.ResponseMode)

	for k, v := range src.CustomParameters {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if dst.CustomParameters == nil {
			dst.CustomParameters = map[string]string{}
		}
		dst.CustomParameters[k] = v
	}

	if src.NBF != 0 {
		dst.NBF = src.NBF
	}
	if src.EXP != 0 {
		dst.EXP = src.EXP
	}
}
