package domain

import "time"

// GrantLineage records, as a signed JWT, what a long-lived access token was
// derived from.
type GrantLineage struct {
	ID            string
	GrantID       string
	ParentGrantID string
	JWT           string
	CreatedAt     time.Time
}
