package flash

import "errors"

var (
	// ErrProgramConflict is returned when a program operation would need to
	// flip a bit from 0 back to 1, which NOR flash only allows via a full
	// sector erase.
	ErrProgramConflict = errors.New("flash: program would set a cleared bit")

	// ErrOutOfRange is returned when a sector index or byte range falls
	// outside the medium.
	ErrOutOfRange = errors.New("flash: access out of range")

	// ErrBadGeometry is returned when a Config describes an unusable medium.
	ErrBadGeometry = errors.New("flash: invalid geometry")

	// ErrImageSize is returned when a loaded image does not match the
	// medium's total size.
	ErrImageSize = errors.New("flash: image size mismatch")
)
