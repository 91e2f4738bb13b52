package staging

import "errors"

var (
	// ErrPayloadNotFound is an error that occurs when none of the required
	// payload subdirectories could be located in the extracted archive. The
	// install of that dependency fails without touching its previously
	// installed final directory.
	ErrPayloadNotFound = errors.New("no payload subdirectory found in extracted archive")

	// ErrPartialCommit marks the non-atomic child-by-child commit fallback.
	// It is surfaced as a report warning, never as a hard error: the install
	// continues, but an interruption during the fallback can leave the final
	// directory with only part of the new content and none of the old.
	ErrPartialCommit = errors.New("non-atomic commit fallback used")
)
