package authsdk

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient talks to the authorization server endpoints.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient returns a client with a 10 second timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			// Authorize answers with a redirect the caller wants to inspect.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// ClientAuth carries client credentials. Basic selects
// client_secret_basic, otherwise they are sent as form fields.
type ClientAuth struct {
	ID     string
	Secret string
	Basic  bool
}

func (a ClientAuth) addTo(form url.Values) {
	if a.ID == "" || a.Basic {
		return
	}
	form.Set("client_id", a.ID)
	if a.Secret != "" {
		form.Set("client_secret", a.Secret)
	}
}

func (a ClientAuth) setOn(req *http.Request) {
	if a.ID != "" && a.Basic {
		req.SetBasicAuth(url.QueryEscape(a.ID), url.QueryEscape(a.Secret))
	}
}
