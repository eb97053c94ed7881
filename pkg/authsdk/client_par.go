package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PushAuthorizationRequest pushes authorization parameters and returns the
// request_uri to use at the authorization endpoint (RFC 9126).
func (c *SDKClient) PushAuthorizationRequest(ctx context.Context, auth ClientAuth, params url.Values) (*ParResponse, error) {
	resp, err := c.postForm(ctx, "/v1/oauth2/par", auth, cloneValues(params), nil)
	if err != nil {
		return nil, err
	}

	var out ParResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizeResult is where the authorization endpoint redirected to.
type AuthorizeResult struct {
	Location *url.URL
	Code     string
	State    string
}

// Authorize submits the login form to the authorization endpoint and follows
// nothing: the redirect target is returned.
func (c *SDKClient) Authorize(ctx context.Context, params url.Values) (*AuthorizeResult, error) {
	resp, err := c.postForm(ctx, "/v1/oauth2/authorize", ClientAuth{}, cloneValues(params), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusFound {
		var ignored struct{}
		return nil, decodeJSON(resp, &ignored, http.StatusFound)
	}
	defer resp.Body.Close()

	loc, err := resp.Location()
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	q := loc.Query()
	if e := q.Get("error"); e != "" {
		return nil, &OAuth2Error{StatusCode: resp.StatusCode, Code: e, Description: q.Get("error_description")}
	}
	return &AuthorizeResult{Location: loc, Code: q.Get("code"), State: q.Get("state")}, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
