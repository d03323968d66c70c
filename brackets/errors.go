package brackets

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for malformed draw input. Pairing itself never
// fails once its input is valid.
var ErrInvalidInput = errors.New("invalid draw input")

func checkIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
