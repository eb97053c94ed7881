package http

import (
	"net/http"

	"github.com/JanssenProject/jans-sub054/pkg/httpx"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery. It
// carries the signing keys and the request-object encryption key.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify issued JWTs and to encrypt request objects.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.JWKS())
	}
}
