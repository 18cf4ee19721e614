package customers

import (
	"regexp"
	"strings"

	"mung-manager/internal/apperr"
)

// Korean mobile numbers: 01X prefix, 10 or 11 digits, hyphens optional.
var phoneRe = regexp.MustCompile(`^01[016789][0-9]{7,8}$`)

// NormalizePhone validates a phone number and returns it with hyphens
// stripped, the form stored and matched against.
func NormalizePhone(s string) (string, error) {
	digits := strings.ReplaceAll(strings.TrimSpace(s), "-", "")
	if !phoneRe.MatchString(digits) {
		return "", apperr.Validation("invalid_phone_number", "phone number format is invalid")
	}
	return digits, nil
}
