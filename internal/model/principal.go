package model

import "strings"

// Global groups carried in the token's groups claim.
const (
	GroupAdmin  = "Admin"
	GroupMember = "Member"
)

// Principal is the authenticated caller as described by the bearer token.
type Principal struct {
	UserID string   `json:"userID"`
	Email  string   `json:"email"`
	Groups []string `json:"groups"`
}

// InGroup reports whether the principal carries the given global group.
func (p *Principal) InGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lower-cases an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
