package sec

import "strings"

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively (RFC 7235).
func ExtractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
