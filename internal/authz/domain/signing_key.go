package domain

import "time"

// SigningKey is a server private key sealed with the master key.
type SigningKey struct {
	ID                  string
	Kid                 string
	Algorithm           string
	Use                 string // "sig" or "enc"
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
}
