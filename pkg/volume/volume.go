// Package volume provides read-only, positioned access to filesystem images.
package volume

import (
	"fmt"
	"os"
)

// Volume is a randomly-addressable, read-only byte store. Read fills
// `buffer` completely from `offset` or fails with ErrRead.
type Volume interface {
	Read(offset uint64, buffer []byte) error
}

// ErrRead is returned when a range cannot be read, either because it extends
// past the end of the image or because the underlying storage failed.
type ErrRead struct {
	Offset uint64
	Length int
	Size   uint64
	Err    error
}

func (err ErrRead) Error() string {
	if err.Err != nil {
		return fmt.Sprintf(
			"reading `%d` bytes at offset `%d`: %v",
			err.Length,
			err.Offset,
			err.Err,
		)
	}
	return fmt.Sprintf(
		"reading `%d` bytes at offset `%d`: range exceeds image size `%d`",
		err.Length,
		err.Offset,
		err.Size,
	)
}

func (err ErrRead) Unwrap() error { return err.Err }

func inRange(offset uint64, length int, size uint64) bool {
	return offset <= size && uint64(length) <= size-offset
}

type MemoryVolume struct {
	buf []byte
}

// NewMemoryVolume wraps `buf` without copying it.
func NewMemoryVolume(buf []byte) MemoryVolume {
	return MemoryVolume{buf}
}

func (volume MemoryVolume) Size() uint64 { return uint64(len(volume.buf)) }

func (volume MemoryVolume) Read(offset uint64, buffer []byte) error {
	if !inRange(offset, len(buffer), volume.Size()) {
		return ErrRead{
			Offset: offset,
			Length: len(buffer),
			Size:   volume.Size(),
		}
	}
	copy(buffer, volume.buf[offset:])
	return nil
}

type FileVolume struct {
	file *os.File
	size uint64
}

// OpenFileVolume opens the image at `path` for reading.
func OpenFileVolume(path string) (*FileVolume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening image: stat `%s`: %w", path, err)
	}
	return &FileVolume{file: file, size: uint64(info.Size())}, nil
}

func (volume *FileVolume) Name() string { return volume.file.Name() }

func (volume *FileVolume) Size() uint64 { return volume.size }

func (volume *FileVolume) Read(offset uint64, buffer []byte) error {
	if !inRange(offset, len(buffer), volume.size) {
		return ErrRead{Offset: offset, Length: len(buffer), Size: volume.size}
	}
	if _, err := volume.file.ReadAt(buffer, int64(offset)); err != nil {
		return ErrRead{
			Offset: offset,
			Length: len(buffer),
			Size:   volume.size,
			Err: fmt.Errorf(
				"reading file `%s`: %w",
				volume.file.Name(),
				err,
			),
		}
	}
	return nil
}

func (volume *FileVolume) Close() error {
	if err := volume.file.Close(); err != nil {
		return fmt.Errorf("closing image `%s`: %w", volume.file.Name(), err)
	}
	return nil
}

var (
	_ Volume = MemoryVolume{}
	_ Volume = &FileVolume{}
)
