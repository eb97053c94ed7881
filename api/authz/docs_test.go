package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwaggerDoc_DocumentsEveryRouteMethod(t *testing.T) {
	t.Parallel()

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	want := map[string][]string{
		"/v1/oauth2/token":       {"post"},
		"/v1/oauth2/par":         {"post"},
		"/v1/oauth2/authorize":   {"post"},
		"/v1/oauth2/validate":    {"get", "post"},
		"/v1/oauth2/revoke":      {"post"},
		"/.well-known/jwks.json": {"get"},
		"/livez":                 {"get"},
		"/readyz":                {"get"},
	}
	for path, methods := range want {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			require.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
}
