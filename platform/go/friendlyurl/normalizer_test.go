package friendlyurl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWithPeriodsAndSlashes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "spaces become hyphens", input: "  HELLO WORLD  ", expect: "hello-world"},
		{name: "accents are folded", input: "Café déjà vu", expect: "cafe-deja-vu"},
		{name: "periods and slashes kept", input: "v1.2/Release Notes", expect: "v1.2/release-notes"},
		{name: "punctuation collapses", input: "what?! -- really", expect: "what-really"},
		{name: "only punctuation", input: "!!!", expect: ""},
		{name: "non latin script", input: "日本 news", expect: "news"},
		{name: "empty", input: "", expect: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expect, NormalizeWithPeriodsAndSlashes(tt.input))
		})
	}
}

func TestNormalizeReplacesSeparators(t *testing.T) {
	t.Parallel()

	require.Equal(t, "v1-2-release-notes", Normalize("v1.2/Release Notes"))
	require.Equal(t, "a-b", Normalize("a_b"))
}
