// AngelaMos | 2026
// subdomain.go

package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	SubdomainMinLength = 3
	SubdomainMaxLength = 50
)

var (
	ErrInvalidSubdomain  = errors.New("invalid subdomain")
	ErrReservedSubdomain = fmt.Errorf("subdomain is reserved: %w", ErrInvalidSubdomain)
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var reservedSubdomains = map[string]struct{}{
	"www":    {},
	"api":    {},
	"admin":  {},
	"app":    {},
	"mail":   {},
	"static": {},
}

// NormalizeSubdomain folds free text into subdomain form:
// "City Pharmacy!" becomes "city-pharmacy".
func NormalizeSubdomain(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		}
	}

	return b.String()
}

func ValidateSubdomain(sub string) error {
	if n := len(sub); n < SubdomainMinLength || n > SubdomainMaxLength {
		return fmt.Errorf("%w: must be %d-%d characters",
			ErrInvalidSubdomain, SubdomainMinLength, SubdomainMaxLength)
	}

	if !subdomainPattern.MatchString(sub) {
		return fmt.Errorf("%w: use lowercase letters, digits and single hyphens",
			ErrInvalidSubdomain)
	}

	if _, ok := reservedSubdomains[sub]; ok {
		return fmt.Errorf("%s: %w", sub, ErrReservedSubdomain)
	}

	return nil
}
