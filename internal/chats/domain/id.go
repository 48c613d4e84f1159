package domain

import (
	"sort"
	"strings"
)

const idSeparator = "_"

// ConversationID derives the id shared by a pair of users. The result does
// not depend on argument order.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, idSeparator)
}

// HasParticipant reports whether id is a conversation id derived for uid.
func HasParticipant(id, uid string) bool {
	a, b, ok := strings.Cut(id, idSeparator)
	if !ok || a == "" || b == "" || strings.Contains(b, idSeparator) {
		return false
	}
	return a == uid || b == uid
}
