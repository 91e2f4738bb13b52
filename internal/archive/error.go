package archive

import "errors"

var (
	// ErrBadArchive is an error that occurs when an archive is corrupt or
	// otherwise unreadable. It is fatal for the install step consuming that
	// archive.
	ErrBadArchive = errors.New("bad archive")

	// ErrInsecurePath is an error that occurs when an archive entry names a
	// path outside the expansion directory.
	ErrInsecurePath = errors.New("insecure path in archive")
)
