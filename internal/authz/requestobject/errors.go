package requestobject

import "errors"

// ErrInvalidRequestObject is returned for every rejected request object. The
// concrete cause is wrapped alongside it for logging.
var ErrInvalidRequestObject = errors.New("invalid_request_object")

var (
	ErrMalformed        = errors.New("malformed request object")
	ErrAlgNone          = errors.New("unsigned request object")
	ErrAlgNotAllowed    = errors.New("algorithm not allowed")
	ErrNoKey            = errors.New("no key to verify request object")
	ErrSignature        = errors.New("signature verification failed")
	ErrDecrypt          = errors.New("decryption failed")
	ErrExpired          = errors.New("request object expired")
	ErrMissingExp       = errors.New("exp is required")
	ErrNotYetValid      = errors.New("request object not yet valid")
	ErrMissingNbf       = errors.New("nbf is required")
	ErrLifetimeTooLong  = errors.New("exp and nbf are too far apart")
	ErrIssuer           = errors.New("iss does not match client_id")
	ErrAudience         = errors.New("aud does not contain the issuer")
	ErrNestedRequestURI = errors.New("request_uri is not allowed inside a request object")
)
