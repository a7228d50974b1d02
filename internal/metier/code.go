package metier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCode is returned for strings that are not ROME codes.
var ErrInvalidCode = errors.New("invalid ROME code")

// A ROME code is one domain letter A–N followed by four digits, e.g. A1413.
var codePattern = regexp.MustCompile(`^[A-N][0-9]{4}$`)

// ParseCode trims and upper-cases s and checks it against the ROME format.
func ParseCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if !codePattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	return code, nil
}

// SplitCodes splits free text on commas, semicolons and whitespace, trims and
// upper-cases each token and drops repeats. Tokens are not validated.
func SplitCodes(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	return dedupe(tokens)
}

// NormalizeCodes applies the SplitCodes clean-up to an explicit list.
func NormalizeCodes(codes []string) []string {
	return dedupe(codes)
}

func dedupe(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
