package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// WriteJSON writes v as JSON with the given status. Every JSON response from
// the authorization server is non-cacheable.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache forbids caching and transformation of the response.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-transform")
	w.Header().Set("Pragma", "no-cache")
}

// IsFormContentType reports whether the request body is form encoded. An
// absent Content-Type is accepted.
func IsFormContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/x-www-form-urlencoded")
}

// ParseSpaceDelimitedFields splits a space-delimited list such as a scope
// string. It returns nil for blank input.
func ParseSpaceDelimitedFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// DecodeScope applies one more round of URL decoding to a scope value. Some
// clients double-encode the scope; the raw value is kept if it does not
// decode.
func DecodeScope(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
