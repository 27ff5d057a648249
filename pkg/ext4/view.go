package ext4

import "fmt"

// ErrOutOfBounds is returned when a requested byte range extends past the end
// of the buffer being decoded.
type ErrOutOfBounds struct {
	Offset int
	Width  int
	Length int
}

func (err ErrOutOfBounds) Error() string {
	return fmt.Sprintf(
		"out of bounds: range `[%d, %d)` exceeds buffer of length `%d`",
		err.Offset,
		err.Offset+err.Width,
		err.Length,
	)
}

// ReadUint assembles an unsigned little-endian integer from `width` bytes
// (1 through 8) starting at `offset`.
func ReadUint(b []byte, offset, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf(
			"reading uint of width `%d`: %w",
			width,
			ErrOutOfBounds{Offset: offset, Width: width, Length: len(b)},
		)
	}

	p, err := Slice(b, offset, width)
	if err != nil {
		return 0, err
	}

	// Little endian: first byte is least significant
	var x uint64
	for i := width - 1; i >= 0; i-- {
		x = (x << 8) | uint64(p[i])
	}
	return x, nil
}

// Slice returns the `length` bytes of `b` starting at `offset`. The result
// aliases `b`.
func Slice(b []byte, offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset > len(b) || len(b)-offset < length {
		return nil, ErrOutOfBounds{Offset: offset, Width: length, Length: len(b)}
	}
	return b[offset : offset+length : offset+length], nil
}
