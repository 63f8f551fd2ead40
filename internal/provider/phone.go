package provider

import (
	"fmt"
	"regexp"
	"strings"
)

// Domestic Indian mobile numbers: country code 91 followed by ten digits
// starting 6-9. The domestic gateways reject anything else.
var indianMobilePattern = regexp.MustCompile(`^91[6-9]\d{9}$`)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "")

// NormalizeIndianMobile converts a raw phone number into the
// country-code-prefixed digit form the domestic SMS gateways require.
// A bare ten-digit mobile gets the 91 prefix; numbers that do not match
// the domestic mobile pattern fail with a permanent error.
func NormalizeIndianMobile(raw string) (string, error) {
	digits := phoneStripper.Replace(strings.TrimSpace(raw))
	digits = strings.TrimPrefix(digits, "0")

	if len(digits) == 10 {
		digits = "91" + digits
	}

	if !indianMobilePattern.MatchString(digits) {
		return "", &ProviderError{
			Message: fmt.Sprintf("not a valid Indian mobile number: %q", raw),
		}
	}

	return digits, nil
}
