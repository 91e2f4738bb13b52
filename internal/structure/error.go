package structure

import "errors"

// ErrInvalidSpec is an error that occurs when a structure specification
// document is malformed: not a JSON object, missing a required key, or
// naming a path outside the install root. It always surfaces before any
// filesystem mutation.
var ErrInvalidSpec = errors.New("invalid structure specification")
