package coupon

import "strings"

// RedactEmail keeps the first character of the local part: a***@example.com.
// An empty address stays empty.
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
