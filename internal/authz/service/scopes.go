package service

import (
	"slices"
	"strings"

	"github.com/JanssenProject/jans-sub054/pkg/httpx"
)

// ParseScope splits a space-delimited scope parameter after URL-decoding it
// once more.
func ParseScope(raw string) []string {
	return httpx.ParseSpaceDelimitedFields(httpx.DecodeScope(raw))
}

// JoinScopes formats scopes for the scope response field.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// intersectScopes keeps the entries of a that are in b, in the order of a,
// without duplicates.
func intersectScopes(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func hasScope(scopes []string, scope string) bool {
	return slices.Contains(scopes, scope)
}
