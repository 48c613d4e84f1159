package identity

import "strings"

const (
	// NumberLength is the number of digits in a user-facing ID.
	NumberLength = 6

	// HandleDomain is appended to a six-digit ID to form the login handle the
	// auth backend understands.
	HandleDomain = "users.sixchat.app"
)

// SanitizeNumber strips every non-digit from raw and keeps at most the first
// six remaining digits.
func SanitizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == NumberLength {
			break
		}
	}
	return b.String()
}

// IsValidNumber reports whether s is exactly six ASCII digits.
func IsValidNumber(s string) bool {
	return len(s) == NumberLength && SanitizeNumber(s) == s
}

// ToCredentialHandle maps a six-digit ID to its login handle.
func ToCredentialHandle(number string) string {
	return number + "@" + HandleDomain
}

// NumberFromHandle reverses ToCredentialHandle. ok is false for handles that
// were not produced by it.
func NumberFromHandle(handle string) (number string, ok bool) {
	local, domain, found := strings.Cut(strings.ToLower(strings.TrimSpace(handle)), "@")
	if !found || domain != HandleDomain || !IsValidNumber(local) {
		return "", false
	}
	return local, true
}
