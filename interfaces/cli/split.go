package cli

import (
	"errors"

	"github.com/google/shlex"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitLine breaks a console line into shell-style words. Quotes group
// words, a backslash escapes the next rune and a leading # starts a comment.
func splitLine(line string) ([]string, error) {
	words, err := shlex.Split(line)
	if err != nil {
		// shlex only fails on input that ends inside a quote or escape
		return nil, errUnterminatedQuote
	}
	if len(words) == 0 {
		return nil, nil
	}
	return words, nil
}
