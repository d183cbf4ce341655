package reconcile

import "strings"

const countryCode = "964"

// PhoneCandidates normalizes a sender MSISDN into the lookup forms stored
// customer phones may use. The slice order is the resolution precedence:
// domestic form first, then the country-code form, then the bare ten-digit
// suffix.
func PhoneCandidates(msisdn string) []string {
	digits := digitsOnly(msisdn)

	var national string
	switch {
	case strings.HasPrefix(digits, countryCode):
		national = digits[len(countryCode):]
	case strings.HasPrefix(digits, "0"):
		national = digits[1:]
	default:
		national = digits
	}
	if len(national) < 10 {
		return nil
	}

	candidates := []string{
		"0" + national,
		"+" + countryCode + national,
		national,
	}
	return candidates
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
