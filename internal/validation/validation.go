// Package validation checks and normalizes device-flow user codes before
// they are used to look up a pending authorization request.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// GroupSize is the number of characters in each half of a user code.
	GroupSize = 4

	// Charset is the allowed user-code alphabet per RFC 8628 section 6.1:
	// no vowels, no easily confused characters.
	Charset = "BCDFGHJKLMNPQRSTVWXZ"
)

var codeRegex = regexp.MustCompile(fmt.Sprintf("^[%s]{%d}-?[%s]{%d}$",
	Charset, GroupSize, Charset, GroupSize))

// Error describes why a user code was rejected.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid user code %q: %s", e.Code, e.Message)
}

// ValidateUserCode checks that a user code is well formed. It accepts both
// the display format (XXXX-XXXX) and the bare normalized form.
func ValidateUserCode(code string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return &Error{Code: code, Message: "code is empty"}
	}
	if !codeRegex.MatchString(trimmed) {
		return &Error{
			Code:    code,
			Message: fmt.Sprintf("code must be %d characters from the set %s, optionally split as XXXX-XXXX", 2*GroupSize, Charset),
		}
	}
	return nil
}

// NormalizeCode converts a user code to its canonical lookup form: upper
// case, no separator, no surrounding space.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// FormatCode converts a normalized code back to display format.
func FormatCode(code string) string {
	if len(code) != 2*GroupSize {
		return code
	}
	return code[:GroupSize] + "-" + code[GroupSize:]
}
