package utils

import "strings"

// AnonymizeToken - replaces all but last `clearLen` characters of the token with asterisks
func AnonymizeToken(token string, clearLen int) string {
	if clearLen <= 0 || len(token) <= clearLen {
		return strings.Repeat("*", len(token))
	}

	return strings.Repeat("*", len(token)-clearLen) + token[len(token)-clearLen:]
}
