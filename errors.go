package region

import "fmt"

// ErrOutOfBounds is wrapped by Init when buf spans too few pages for the
// preset caches, and by Open when buf is smaller than one page or its
// length disagrees with the size recorded in the header.
var ErrOutOfBounds = fmt.Errorf("region: offset out of bounds")

// ErrMisaligned is wrapped by Init when buf's length is not a non-zero
// multiple of PageSize.
var ErrMisaligned = fmt.Errorf("region: offset misaligned")

// wrapf attaches context to an error without losing it to errors.Unwrap /
// errors.Is callers.
func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
