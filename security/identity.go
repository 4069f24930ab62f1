package security

import "strings"

// Identity is the caller-provided identity of a user. It comes from the
// transport layer and carries no proof of authenticity.
type Identity struct {
	ID        UserID
	Username  string
	FirstName string
	IsBot     bool
}

// suspiciousUsernameTokens are substrings that mark a display handle as
// suspicious. Matching is case-insensitive.
var suspiciousUsernameTokens = []string{"bot", "spam", "scam", "hack", "premium", "gift"}

// ValidateIdentity applies static heuristics to a caller-provided identity.
// An absent identity is invalid, as is one that marks itself as an automated
// actor or whose handle contains a suspicious token. This is a heuristic
// check, not behavioral analysis.
func ValidateIdentity(identity *Identity) bool {
	if identity == nil {
		return false
	}

	if identity.IsBot {
		return false
	}

	if identity.Username != "" && usernameSuspicious(identity.Username) {
		return false
	}

	return true
}

// usernameSuspicious reports whether the handle contains any denylisted token
func usernameSuspicious(username string) bool {
	lower := strings.ToLower(username)
	for _, token := range suspiciousUsernameTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
