package users

import "strings"

// MaskEmail keeps the first character of the local part and the domain:
// jane@example.com -> j***@example.com.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
