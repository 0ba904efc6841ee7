package crypto

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

const (
	// InviteCodePrefix is prepended to every generated invite code.
	InviteCodePrefix = "LB-"
	// InviteCodeAlphabet omits I, O, 0 and 1 so codes can be typed from a screenshot.
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 6
)

var inviteCodePattern = regexp.MustCompile(`^LB-[A-Z2-9]{6}$`)

// GenerateInviteCode returns a random code of the form LB-XXXXXX.
func GenerateInviteCode() (string, error) {
	b := make([]byte, inviteCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// 32 divides 256, so masking to 5 bits keeps every symbol equally likely.
	out := make([]byte, 0, len(InviteCodePrefix)+inviteCodeLength)
	out = append(out, InviteCodePrefix...)
	for _, v := range b {
		out = append(out, InviteCodeAlphabet[v&31])
	}
	return string(out), nil
}

// NormalizeInviteCode upper-cases the code. Surrounding whitespace is kept, so
// padded input fails the format check.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(code)
}

// IsValidInviteCode reports whether code, once normalized, has the invite code format.
func IsValidInviteCode(code string) bool {
	return inviteCodePattern.MatchString(NormalizeInviteCode(code))
}
