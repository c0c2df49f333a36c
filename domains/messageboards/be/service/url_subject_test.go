package service

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDeriveURLSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id       int64
		subject  *string
		expect   string
		fallback bool
	}{
		{name: "absent subject", id: 7, subject: nil, expect: "7", fallback: true},
		{name: "blank subject", id: 8, subject: strPtr("   "), expect: "8", fallback: true},
		{name: "numeric subject", id: 999, subject: strPtr("12345"), expect: "999", fallback: true},
		{name: "reserved token", id: 42, subject: strPtr("rss"), expect: "42", fallback: true},
		{name: "reserved token any case", id: 43, subject: strPtr("  RSS "), expect: "43", fallback: true},
		{name: "normalizes to nothing", id: 44, subject: strPtr("!!!"), expect: "44", fallback: true},
		{name: "normalizes to reserved token", id: 45, subject: strPtr("RSS!"), expect: "45", fallback: true},
		{name: "normalizes to number", id: 46, subject: strPtr("#2024"), expect: "46", fallback: true},
		{name: "trimmed and lowercased", id: 1, subject: strPtr("  HELLO WORLD  "), expect: "hello-world"},
		{name: "keeps periods and slashes", id: 2, subject: strPtr("Release 1.2/Notes"), expect: "release-1.2/notes"},
		{name: "folds accents", id: 3, subject: strPtr("Réunion d'été"), expect: "reunion-d-ete"},
		{name: "number with text", id: 4, subject: strPtr("2024 roadmap"), expect: "2024-roadmap"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DeriveURLSubject(tt.id, tt.subject)
			require.Equal(t, tt.expect, got.Value)
			require.Equal(t, tt.fallback, got.Fallback)
		})
	}
}

func TestDeriveURLSubjectTruncates(t *testing.T) {
	t.Parallel()

	got := DeriveURLSubject(1, strPtr(strings.Repeat("Ab", 300)))
	require.Len(t, got.Value, MaxURLSubjectLength)
	require.Equal(t, strings.Repeat("ab", 127), got.Value)
}

var urlSubjectCharset = regexp.MustCompile(`^[a-z0-9./-]+$`)

func TestDeriveURLSubjectProperties(t *testing.T) {
	t.Parallel()

	alphabet := []rune("abcXYZ019 .-/_!?#éüßñ日本\t\n")
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 2000; i++ {
		n := rng.IntN(400)
		runes := make([]rune, n)
		for j := range runes {
			runes[j] = alphabet[rng.IntN(len(alphabet))]
		}
		subject := string(runes)
		id := int64(i + 1)

		got := DeriveURLSubject(id, &subject).Value
		require.NotEmpty(t, got)
		require.LessOrEqual(t, len(got), MaxURLSubjectLength)
		require.Equal(t, strings.ToLower(got), got)
		require.Regexp(t, urlSubjectCharset, got)
		require.NotEqual(t, "rss", got)
		if _, err := strconv.ParseInt(got, 10, 64); err == nil {
			require.Equal(t, strconv.FormatInt(id, 10), got, "numeric slugs are only ever the id")
		}
	}
}

func TestAssignerSuffixesDuplicatesInEncounterOrder(t *testing.T) {
	t.Parallel()

	a := NewAssigner()
	require.Equal(t, "foo", a.Assign(1, strPtr("Foo")))
	require.Equal(t, "foo-1", a.Assign(2, strPtr("FOO ")))
	require.Equal(t, "foo-2", a.Assign(3, strPtr("foo!")))
	require.Equal(t, "bar", a.Assign(4, strPtr("bar")))
	require.Equal(t, "5", a.Assign(5, nil))

	stats := a.Stats()
	require.Equal(t, 5, stats.Rows)
	require.Equal(t, 2, stats.Duplicates)
	require.Equal(t, 1, stats.Fallbacks)
	require.Zero(t, stats.Collisions)
}

func TestAssignerReportsSuffixCollisions(t *testing.T) {
	t.Parallel()

	a := NewAssigner()
	require.Equal(t, "foo", a.Assign(1, strPtr("foo")))
	require.Equal(t, "foo-1", a.Assign(2, strPtr("foo")))
	// A literal "foo-1" is not re-checked against the suffixed one.
	require.Equal(t, "foo-1", a.Assign(3, strPtr("foo-1")))
	require.Equal(t, 1, a.Stats().Collisions)
}

func TestAssignerUniqueWithoutLiteralSuffixes(t *testing.T) {
	t.Parallel()

	subjects := []string{"alpha", "Alpha", "ALPHA!", "beta", "beta", "", "42", "rss", "gamma delta", "Gamma-Delta"}
	a := NewAssigner()
	seen := make(map[string]int64)
	for i := 0; i < 500; i++ {
		id := int64(i + 1)
		subject := subjects[i%len(subjects)]
		got := a.Assign(id, &subject)
		prev, dup := seen[got]
		require.False(t, dup, "slug %q assigned to %d and %d", got, prev, id)
		seen[got] = id
	}
	require.Zero(t, a.Stats().Collisions)
}

func TestAssignerSuffixStaysWithinLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 400)
	a := NewAssigner()
	first := a.Assign(1, &long)
	second := a.Assign(2, &long)

	require.Len(t, first, MaxURLSubjectLength)
	require.Len(t, second, MaxURLSubjectLength)
	require.True(t, strings.HasSuffix(second, "-1"))
	require.NotEqual(t, first, second)
}
