package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/requestobject"
	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/slogx"
)

// ResponseTypeCode is the only response type this server issues.
const ResponseTypeCode = "code"

// ParService accepts pushed authorization requests and hands each one out
// exactly once to the authorization endpoint.
type ParService struct {
	PARs      store.PARs
	Clients   *ClientRegistry
	Validator *requestobject.Validator
	Config    Config
	Now       func() time.Time
}

func (s *ParService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PushRequest is an authenticated client's PAR submission.
type PushRequest struct {
	Client     domain.Client
	Attributes domain.ParAttributes

	// Request is the optional request object.
	Request string
	// RequestURI must be empty at the PAR endpoint.
	RequestURI string
}

// PushResult is returned to the client.
type PushResult struct {
	RequestURI string
	ExpiresIn  int64
}

// ExternalID converts a storage id into the request_uri handed to clients.
func ExternalID(internal string) string { return domain.ParExternalID(internal) }

// InternalID converts a request_uri into a storage id.
func InternalID(external string) string { return domain.ParInternalID(external) }

// NewParID returns a fresh internal PAR id.
func NewParID() string { return domain.ParInternalPrefix + uuid.NewString() }

// Push validates and stores the request. A request object overrides the
// form values it carries, and its exp sets the record's expiry.
func (s *ParService) Push(ctx context.Context, req PushRequest) (PushResult, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	if strings.TrimSpace(req.RequestURI) != "" {
		return PushResult{}, newError(ErrInvalidRequest, "request_uri is not allowed at the PAR endpoint")
	}

	attrs := req.Attributes
	if strings.TrimSpace(attrs.ClientID) == "" {
		attrs.ClientID = req.Client.ID
	}
	if attrs.ClientID != req.Client.ID {
		return PushResult{}, newError(ErrInvalidRequest, "client_id does not match the authenticated client")
	}

	// A verified request object wins over the form, client_id included. The
	// merged client_id is what the authorization request must present.
	if strings.TrimSpace(req.Request) != "" {
		ro, err := s.validateRequestObject(ctx, req.Client, req.Request)
		if err != nil {
			return PushResult{}, err
		}
		requestobject.Merge(&attrs, ro)
	}
	if attrs.ResponseType != ResponseTypeCode {
		return PushResult{}, newError(ErrInvalidRequest, "unsupported response_type")
	}
	if !s.Clients.ValidateRedirectURI(req.Client, attrs.RedirectURI) {
		return PushResult{}, newError(ErrInvalidRequest, "redirect_uri is not registered")
	}
	if err := checkTimeBounds(attrs, now); err != nil {
		return PushResult{}, err
	}

	fapi := s.Config.FAPI || req.Client.FAPI
	if fapi {
		challenge, method, err := validatePKCE(attrs.CodeChallenge, attrs.CodeChallengeMethod, req.Client, true)
		if err != nil {
			return PushResult{}, err
		}
		attrs.CodeChallenge, attrs.CodeChallengeMethod = challenge, method
	}

	lifetime := s.Config.ParTTL
	if req.Client.ParLifetime > 0 {
		lifetime = req.Client.ParLifetime
	}
	expiresAt := now.Add(lifetime)
	if attrs.EXP != 0 {
		expiresAt = time.Unix(attrs.EXP, 0)
	}

	par := domain.Par{
		ID:         NewParID(),
		ClientID:   attrs.ClientID,
		Attributes: attrs,
		ExpiresAt:  expiresAt,
		Deletable:  true,
		CreatedAt:  now,
	}
	if err := s.PARs.CreatePAR(ctx, par); err != nil {
		return PushResult{}, fmt.Errorf("persist par: %w", err)
	}

	l.Info("pushed authorization request stored",
		slog.String("client_id", par.ClientID), slog.Time("expires_at", expiresAt))

	return PushResult{
		RequestURI: ExternalID(par.ID),
		ExpiresIn:  domain.SecondsUntil(expiresAt, now),
	}, nil
}

func (s *ParService) validateRequestObject(ctx context.Context, client domain.Client, raw string) (*requestobject.Request, error) {
	secret, err := s.Clients.SharedSecret(client)
	if err != nil {
		return nil, err
	}
	ro, err := s.Validator.Validate(ctx, requestobject.Input{
		Request: raw,
		Client:  &client,
		Secret:  secret,
		FAPI:    s.Config.FAPI || client.FAPI,
	})
	if err != nil {
		return nil, &Error{Kind: ErrInvalidRequestObject, Description: "invalid request object"}
	}
	return ro, nil
}

// checkTimeBounds rejects attributes whose request object nbf lies in the
// future or whose exp has passed.
func checkTimeBounds(attrs domain.ParAttributes, now time.Time) error {
	if attrs.NBF != 0 && time.Unix(attrs.NBF, 0).After(now.Add(requestobject.DefaultClockSkew)) {
		return newError(ErrInvalidRequest, "nbf is in the future")
	}
	if attrs.EXP != 0 && !now.Before(time.Unix(attrs.EXP, 0)) {
		return newError(ErrInvalidRequest, "request has expired")
	}
	return nil
}

// GetAndValidateForAuthorizationRequest resolves a request_uri presented at
// the authorization endpoint and removes it, so each pushed request is used
// at most once.
func (s *ParService) GetAndValidateForAuthorizationRequest(ctx context.Context, requestURI, state, clientID string) (domain.Par, error) {
	l := slogx.FromContext(ctx)
	id := InternalID(strings.TrimSpace(requestURI))

	par, err := s.PARs.GetPAR(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("par not found", slog.String("request_uri", requestURI))
			return domain.Par{}, withState(newError(ErrInvalidRequest, "Failed to find par by request_uri"), state)
		}
		return domain.Par{}, err
	}

	if strings.TrimSpace(clientID) == "" || clientID != par.ClientID {
		l.Warn("par client_id mismatch",
			slog.String("client_id", clientID), slog.String("par_client_id", par.ClientID))
		return domain.Par{}, withState(newError(ErrInvalidRequest, "client_id does not match"), state)
	}

	now := s.now()
	if par.IsExpired(now) {
		l.Debug("par expired", slog.String("request_uri", requestURI))
		return domain.Par{}, withState(newError(ErrInvalidRequestURI, "request_uri has expired"), state)
	}
	if err := checkTimeBounds(par.Attributes, now); err != nil {
		return domain.Par{}, withState(err, state)
	}

	if err := s.PARs.DeletePAR(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("par consumed concurrently", slog.String("request_uri", requestURI))
			return domain.Par{}, withState(newError(ErrInvalidRequest, "Failed to find par by request_uri"), state)
		}
		return domain.Par{}, err
	}

	return par, nil
}
