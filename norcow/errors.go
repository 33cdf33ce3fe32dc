package norcow

import "errors"

var (
	// ErrNotFound is returned when a key has no record in the active log.
	ErrNotFound = errors.New("norcow: key not found")

	// ErrReservedKey is returned when a caller tries to store one of the
	// reserved keys: 0xFFFF terminates the log scan and 0x0000 marks
	// tombstones, so neither can ever be read back.
	ErrReservedKey = errors.New("norcow: reserved key")

	// ErrLengthMismatch is returned by Replace when the new value's length
	// differs from the stored record's length.
	ErrLengthMismatch = errors.New("norcow: replace requires same-length value")

	// ErrItemTooBig is returned when a single encoded item cannot fit in an
	// empty sector. Compaction cannot resolve this.
	ErrItemTooBig = errors.New("norcow: item larger than a sector")

	// ErrStoreFull is returned when an append does not fit even after
	// compaction, meaning the live data set has outgrown the medium.
	ErrStoreFull = errors.New("norcow: no space left after compaction")

	// ErrNoMagic is returned when Open finds no initialized sector on a
	// medium that is not blank.
	ErrNoMagic = errors.New("norcow: no valid sector marker found")
)
