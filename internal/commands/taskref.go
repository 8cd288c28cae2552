package commands

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task id required")

// ParseTaskRef extracts a single task ID from args.
//
// Parsing rules:
//  1. No args, or a blank first arg → ErrTaskRefRequired
//  2. A leading '#' is stripped ("#42" and "42" are the same task)
//  3. More than one arg → error: unexpected argument
//  4. IDs containing whitespace or control characters → error: invalid task id
func ParseTaskRef(args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrTaskRefRequired
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected argument: %s", args[1])
	}

	id := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
	if id == "" {
		return "", ErrTaskRefRequired
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("invalid task id: %q", args[0])
		}
	}
	return id, nil
}
