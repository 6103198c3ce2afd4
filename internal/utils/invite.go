package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewInviteCode returns a short, uppercase invite code. Codes are minted by
// admins and redeemed once during registration.
func NewInviteCode() string {
	id := uuid.NewString()
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:12])
}

// NormalizeInviteCode upper-cases and trims a user-supplied code so lookups
// match minted codes regardless of how the client typed them.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
