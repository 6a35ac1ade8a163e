package messaging

import "strings"

// NormalizeE164 reduces a phone number to a canonical +<country><digits>
// form. Ten-digit numbers are assumed to be US/Canada and get a leading 1.
// Unusable input normalizes to "".
func NormalizeE164(value string) string {
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}

// SamePhone reports whether two raw phone values refer to the same number.
func SamePhone(a, b string) bool {
	na, nb := NormalizeE164(a), NormalizeE164(b)
	return na != "" && na == nb
}

func sanitizePhone(value string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(value) {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
