package pipeline

import "errors"

// ErrDependencyFailed is an error that occurs when one or more dependency
// installs failed hard. The failed dependencies keep their previously
// installed content; per-dependency causes are in [Result.Failed].
var ErrDependencyFailed = errors.New("dependency install failed")
