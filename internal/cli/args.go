package cli

import (
	"fmt"
	"strconv"
)

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s id %q", what, s))
	}
	return id, nil
}

func parseDelimiter(s string, fallback rune) (rune, error) {
	if s == "" {
		return fallback, nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("delimiter must be a single character, got %q", s))
	}
	return r[0], nil
}
