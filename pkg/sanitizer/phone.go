package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Vitrii is a Brazilian marketplace; BR is tried first so local numbers
// without a country code resolve to +55, but already-prefixed international
// numbers still parse.
var supportedRegions = []string{
	"BR",
	"US",
}

// NormalizePhone returns the E.164 form of a requester phone, or "" when the
// input cannot be parsed as a valid number in any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
