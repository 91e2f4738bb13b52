package configuration

import "errors"

// ErrBadDependencyList is an error that occurs when the DEPENDENCIES
// configuration value does not parse as a comma-separated list of name=url
// pairs.
var ErrBadDependencyList = errors.New("malformed dependency list")
