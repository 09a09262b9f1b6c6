//go:build unit

package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]*$`)

func takenSet(slugs ...string) ExistsFunc {
	set := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		set[s] = true
	}
	return func(ctx context.Context, candidate string) (bool, error) {
		return set[candidate], nil
	}
}

func TestBase(t *testing.T) {
	testCases := []struct {
		title string
		want  string
	}{
		{"My First Guide", "my-first-guide"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"Multiple     spaces", "multiple-spaces"},
		{"Go: 2.0 Release!", "go-20-release"},
		{"already-slugged", "already-slugged"},
		{"--Hyphens--", "hyphens"},
		{"Ünïcödé Title", "ncd-title"},
		{"!!!", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.want, Base(tc.title))
		})
	}
}

func TestBase_Length(t *testing.T) {
	long := Base(strings.Repeat("a", 600))
	assert.Len(t, long, maxBaseLength)

	// A cut that lands on a separator does not leave a trailing hyphen.
	cut := Base(strings.Repeat("a", maxBaseLength-1) + " bcd")
	assert.Equal(t, strings.Repeat("a", maxBaseLength-1), cut)

	taken := make([]string, 0, MaxAttempts)
	taken = append(taken, long)
	for n := 2; n < MaxAttempts; n++ {
		taken = append(taken, fmt.Sprintf("%s-%d", long, n))
	}
	got, err := Generate(context.Background(), strings.Repeat("a", 600), takenSet(taken...))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s-%d", long, MaxAttempts), got)
	assert.LessOrEqual(t, len(got), MaxLength)
}

func TestBase_Alphabet(t *testing.T) {
	titles := []string{
		"Hello, World!", " -x- ", "A B", "日本語 guide", "100% Pure", "a - b", "Setting up a server (1.20)",
	}
	for _, title := range titles {
		got := Base(title)
		assert.Regexp(t, slugPattern, got, "title %q", title)
		if got != "" {
			assert.NotEqual(t, '-', rune(got[0]), "leading hyphen for %q", title)
			assert.NotEqual(t, '-', rune(got[len(got)-1]), "trailing hyphen for %q", title)
		}
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("free base is returned as is", func(t *testing.T) {
		got, err := Generate(ctx, "My First Guide", takenSet())
		require.NoError(t, err)
		assert.Equal(t, "my-first-guide", got)
	})

	t.Run("taken base gets numeric suffix starting at 2", func(t *testing.T) {
		got, err := Generate(ctx, "My First Guide", takenSet("my-first-guide"))
		require.NoError(t, err)
		assert.Equal(t, "my-first-guide-2", got)
	})

	t.Run("suffix increments past taken candidates", func(t *testing.T) {
		got, err := Generate(ctx, "foo", takenSet("foo", "foo-2", "foo-3"))
		require.NoError(t, err)
		assert.Equal(t, "foo-4", got)
	})

	t.Run("empty base is rejected", func(t *testing.T) {
		called := false
		_, err := Generate(ctx, "?!", func(ctx context.Context, candidate string) (bool, error) {
			called = true
			return false, nil
		})
		assert.ErrorIs(t, err, ErrEmpty)
		assert.False(t, called, "exists must not be probed for an empty base")
	})

	t.Run("probe error aborts", func(t *testing.T) {
		probeErr := errors.New("db down")
		_, err := Generate(ctx, "foo", func(ctx context.Context, candidate string) (bool, error) {
			return false, probeErr
		})
		assert.ErrorIs(t, err, probeErr)
	})

	t.Run("exhaustion is reported", func(t *testing.T) {
		_, err := Generate(ctx, "foo", func(ctx context.Context, candidate string) (bool, error) {
			return true, nil
		})
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("sequential creations produce distinct slugs", func(t *testing.T) {
		taken := map[string]bool{}
		exists := func(ctx context.Context, candidate string) (bool, error) {
			return taken[candidate], nil
		}
		var got []string
		for i := 0; i < 3; i++ {
			s, err := Generate(ctx, "foo", exists)
			require.NoError(t, err)
			taken[s] = true
			got = append(got, s)
		}
		assert.Equal(t, []string{"foo", "foo-2", "foo-3"}, got)
	})
}
