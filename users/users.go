package users

import (
	"strings"
	"time"
)

// User is a local user record created on first successful login for a given
// third-party subject. ID and ThirdPartyID are immutable after creation;
// Name and Email are refreshed from the identity provider on each login.
type User struct {
	ID           string    `json:"id"`             // Opaque stable identifier, system-assigned
	Name         string    `json:"name"`           // Display name from the identity provider
	Email        string    `json:"email"`          // Case-normalized email address
	ThirdPartyID string    `json:"third_party_id"` // Subject identifier from the identity provider
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail lowercases and trims an email address so that lookups and
// the uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
