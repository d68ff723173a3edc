package bracket

import "errors"

var (
	// Not enough players, groups or resolved participants to go on
	ErrPreconditionFailed = errors.New("precondition failed")
	// Scores that can't be recorded as given
	ErrInvalidResult = errors.New("invalid result")
	// Unknown match, group or player id
	ErrNotFound = errors.New("not found")
	// Malformed request input, e.g. a player paired with themselves
	ErrInvalidInput = errors.New("invalid input")
)
