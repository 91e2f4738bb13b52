package treeops

import "errors"

var (
	// ErrDestInsideSource is an error that occurs when a move or copy
	// destination equals the source path or is one of its descendants.
	// Merging into such a destination would corrupt the source subtree.
	ErrDestInsideSource = errors.New("destination is inside source")

	// ErrChecksumMismatch is an error that occurs when a copied file does
	// not hash to the same checksum as its source, which usually means
	// there are underlying transfer/hardware issues.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
