package reembed

import "errors"

// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
