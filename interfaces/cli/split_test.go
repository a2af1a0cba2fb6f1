package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"maps", []string{"maps"}},
		{"click  10\t20", []string{"click", "10", "20"}},
		{`alias add n1 "Main Hall"`, []string{"alias", "add", "n1", "Main Hall"}},
		{`search 'Room "B"'`, []string{"search", `Room "B"`}},
		{`search Caf\ é`, []string{"search", "Caf é"}},
		{`alias add n1 ""`, []string{"alias", "add", "n1", ""}},
		{`x'y'z`, []string{"xyz"}},
		{"maps # all of them", []string{"maps"}},
		{"# note", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitLineUnterminated(t *testing.T) {
	for _, line := range []string{`say "hi`, `it's`, `trailing\`} {
		_, err := splitLine(line)
		assert.ErrorIs(t, err, errUnterminatedQuote, line)
	}
}
