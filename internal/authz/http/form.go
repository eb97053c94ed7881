package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/JanssenProject/jans-sub054/internal/authz/domain"
	"github.com/JanssenProject/jans-sub054/internal/authz/service"
	"github.com/JanssenProject/jans-sub054/pkg/authsdk"
	"github.com/JanssenProject/jans-sub054/pkg/httpx"
)

// parseForm checks the content type and parses the body. On failure the
// error response has already been written.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost && !httpx.IsFormContentType(r) {
		authsdk.ErrInvalidContentType.WriteError(w)
		return false
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

// clientCredentials reads client_secret_basic or client_secret_post
// credentials. Basic credentials are form-urlencoded (RFC 6749 section
// 2.3.1). Using both methods at once is rejected.
func clientCredentials(r *http.Request) (service.ClientCredentials, *authsdk.OAuth2Error) {
	if id, secret, ok := r.BasicAuth(); ok {
		if r.PostForm.Get("client_secret") != "" {
			return service.ClientCredentials{}, authsdk.ErrInvalidRequest.WithDescription("multiple client authentication methods")
		}
		decodedID, err := url.QueryUnescape(id)
		if err != nil {
			return service.ClientCredentials{}, authsdk.ErrInvalidClient.WithDescription("malformed basic credentials")
		}
		decodedSecret, err := url.QueryUnescape(secret)
		if err != nil {
			return service.ClientCredentials{}, authsdk.ErrInvalidClient.WithDescription("malformed basic credentials")
		}
		if formID := r.PostForm.Get("client_id"); formID != "" && formID != decodedID {
			return service.ClientCredentials{}, authsdk.ErrInvalidRequest.WithDescription("client_id does not match the authenticated client")
		}
		return service.ClientCredentials{ID: decodedID, Secret: decodedSecret, Basic: true}, nil
	}

	return service.ClientCredentials{
		ID:     strings.TrimSpace(r.PostForm.Get("client_id")),
		Secret: r.PostForm.Get("client_secret"),
	}, nil
}

// attributeParams are the authorization parameters with a ParAttributes
// field. Everything else that is not a control parameter is kept as a
// custom parameter.
var attributeParams = map[string]func(*domain.ParAttributes, string){
	"client_id":             func(a *domain.ParAttributes, v string) { a.ClientID = v },
	"response_type":         func(a *domain.ParAttributes, v string) { a.ResponseType = v },
	"redirect_uri":          func(a *domain.ParAttributes, v string) { a.RedirectURI = v },
	"scope":                 func(a *domain.ParAttributes, v string) { a.Scope = v },
	"state":                 func(a *domain.ParAttributes, v string) { a.State = v },
	"nonce":                 func(a *domain.ParAttributes, v string) { a.Nonce = v },
	"display":               func(a *domain.ParAttributes, v string) { a.Display = v },
	"prompt":                func(a *domain.ParAttributes, v string) { a.Prompt = v },
	"max_age":               func(a *domain.ParAttributes, v string) { a.MaxAge = v },
	"acr_values":            func(a *domain.ParAttributes, v string) { a.ACRValues = v },
	"ui_locales":            func(a *domain.ParAttributes, v string) { a.UILocales = v },
	"login_hint":            func(a *domain.ParAttributes, v string) { a.LoginHint = v },
	"code_challenge":        func(a *domain.ParAttributes, v string) { a.CodeChallenge = v },
	"code_challenge_method": func(a *domain.ParAttributes, v string) { a.CodeChallengeMethod = v },
	"claims":                func(a *domain.ParAttributes, v string) { a.Claims = v },
	"response_mode":         func(a *domain.ParAttributes, v string) { a.ResponseMode = v },
}

var controlParams = map[string]struct{}{
	"client_secret": {},
	"request":       {},
	"request_uri":   {},
	"username":      {},
	"password":      {},
	"otp":           {},
}

// parseAttributes collects authorization parameters from form.
func parseAttributes(form url.Values) domain.ParAttributes {
	var attrs domain.ParAttributes
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		if set, ok := attributeParams[key]; ok {
			set(&attrs, v)
			continue
		}
		if _, ok := controlParams[key]; ok || v == "" {
			continue
		}
		if attrs.CustomParameters == nil {
			attrs.CustomParameters = map[string]string{}
		}
		attrs.CustomParameters[key] = v
	}
	return attrs
}

// requestURL rebuilds the absolute URL of r for DPoP htu checks.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.Path
}
