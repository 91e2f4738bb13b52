package fetch

import "errors"

// ErrHTTPStatus is an error that occurs when the remote side answers a
// download request with a non-OK status code.
var ErrHTTPStatus = errors.New("unexpected http status")
