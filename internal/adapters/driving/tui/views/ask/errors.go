package ask

import "errors"

// Error definitions for the ask view.
var (
	// ErrNoAnswerService indicates that no answer service was provided.
	ErrNoAnswerService = errors.New("answer service is required")
)
