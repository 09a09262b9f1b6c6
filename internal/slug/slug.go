// Package slug derives URL-safe, collision-free identifiers from titles.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// MaxAttempts bounds the number of candidates probed by Generate.
	MaxAttempts = 1000
	// MaxLength is the longest slug Generate returns, suffix included.
	MaxLength = 255
)

// maxBaseLength leaves room for the longest suffix, "-1000".
var maxBaseLength = MaxLength - len(fmt.Sprintf("-%d", MaxAttempts))

var (
	// ErrEmpty is returned when a title contains no usable characters.
	ErrEmpty = errors.New("title does not contain any letters or digits usable in a slug")
	// ErrExhausted is returned when MaxAttempts candidates are all taken.
	ErrExhausted = errors.New("no free slug candidate found")
)

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Base converts a title to its slug base.
//
// The transformation rules are:
//   - the title is lower-cased
//   - every run of whitespace becomes a single hyphen
//   - everything outside [a-z0-9-] is dropped
//   - the result is cut to leave room for a numeric suffix within MaxLength
//   - leading and trailing hyphens are trimmed
//
// Example:
//
//	Base("My First Guide")  // "my-first-guide"
//	Base("Go: 2.0 Release!") // "go-20-release"
func Base(title string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	base := strings.Trim(b.String(), "-")
	if len(base) > maxBaseLength {
		base = strings.TrimRight(base[:maxBaseLength], "-")
	}
	return base
}

// Generate returns the first candidate among base, base-2, base-3, ... that
// exists reports as free.
func Generate(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Base(title)
	if base == "" {
		return "", ErrEmpty
	}

	candidate := base
	for n := 2; n <= MaxAttempts+1; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", ErrExhausted
}
