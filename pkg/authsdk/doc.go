/*
Package authsdk is a client for the authorization server and the home of its
wire types.

The server's HTTP handlers write the same OAuth2Error, TokenResponse and
ParResponse values the client decodes, so both sides agree on the JSON.

	client := authsdk.NewSDKClient("https://authz.example.com")
	auth := authsdk.ClientAuth{ID: "app", Secret: "s3cret", Basic: true}

	par, err := client.PushAuthorizationRequest(ctx, auth, url.Values{
		"response_type": {"code"},
		"redirect_uri":  {"https://app.example.com/cb"},
		"scope":         {"openid"},
	})

	// ... the user signs in at /v1/oauth2/authorize with par.RequestURI ...

	tokens, err := client.AuthorizationCodeGrant(ctx, auth, code, "https://app.example.com/cb", verifier)

Errors returned by the server are *OAuth2Error values:

	var oerr *authsdk.OAuth2Error
	if errors.As(err, &oerr) && oerr.Code == authsdk.ErrorCodeInvalidGrant {
		// the code was already used
	}
*/
package authsdk
