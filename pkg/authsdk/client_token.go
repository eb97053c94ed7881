package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Grant type identifiers accepted by the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypePassword          = "password"
	GrantTypeTokenExchange     = "urn:ietf:params:oauth:grant-type:token-exchange"
)

// TokenTypeAccessToken identifies an access token in token exchange.
const TokenTypeAccessToken = "urn:ietf:params:oauth:token-type:access_token"

// TokenOptions are optional token request extras.
type TokenOptions struct {
	// DPoP is a proof JWT sent in the DPoP header.
	DPoP string
}

func (o TokenOptions) headers() map[string]string {
	if o.DPoP == "" {
		return nil
	}
	return map[string]string{"DPoP": o.DPoP}
}

// Token posts an arbitrary grant to the token endpoint.
func (c *SDKClient) Token(ctx context.Context, auth ClientAuth, form url.Values, opts TokenOptions) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/v1/oauth2/token", auth, form, opts.headers())
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizationCodeGrant redeems a code. verifier is the PKCE code_verifier.
func (c *SDKClient) AuthorizationCodeGrant(ctx context.Context, auth ClientAuth, code, redirectURI, verifier string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {GrantTypeAuthorizationCode},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}
	return c.Token(ctx, auth, form, TokenOptions{})
}

// RefreshGrant rotates a refresh token.
func (c *SDKClient) RefreshGrant(ctx context.Context, auth ClientAuth, refreshToken string, scopes []string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {GrantTypeRefreshToken},
		"refresh_token": {refreshToken},
	}
	setScope(form, scopes)
	return c.Token(ctx, auth, form, TokenOptions{})
}

// ClientCredentialsGrant requests an access token for the client itself.
func (c *SDKClient) ClientCredentialsGrant(ctx context.Context, auth ClientAuth, scopes []string) (*TokenResponse, error) {
	form := url.Values{"grant_type": {GrantTypeClientCredentials}}
	setScope(form, scopes)
	return c.Token(ctx, auth, form, TokenOptions{})
}

// PasswordGrant authenticates a resource owner. otp is only needed for users
// with a second factor.
func (c *SDKClient) PasswordGrant(ctx context.Context, auth ClientAuth, username, password, otp string, scopes []string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type": {GrantTypePassword},
		"username":   {username},
		"password":   {password},
	}
	if otp != "" {
		form.Set("otp", otp)
	}
	setScope(form, scopes)
	return c.Token(ctx, auth, form, TokenOptions{})
}

// TokenExchangeGrant exchanges an access token for a long-lived one.
func (c *SDKClient) TokenExchangeGrant(ctx context.Context, auth ClientAuth, subjectToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":         {GrantTypeTokenExchange},
		"subject_token":      {subjectToken},
		"subject_token_type": {TokenTypeAccessToken},
	}
	return c.Token(ctx, auth, form, TokenOptions{})
}

// RevokeToken revokes an access or refresh token (RFC 7009).
func (c *SDKClient) RevokeToken(ctx context.Context, auth ClientAuth, token string) error {
	resp, err := c.postForm(ctx, "/v1/oauth2/revoke", auth, url.Values{"token": {token}}, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if err := parseErrorResponse(resp, body); err != nil {
			return err
		}
		return fmt.Errorf("revoke: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func setScope(form url.Values, scopes []string) {
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}
}
