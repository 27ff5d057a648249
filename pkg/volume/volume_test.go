package volume

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryVolume_Read(t *testing.T) {
	volume := NewMemoryVolume([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	buf := make([]byte, 3)
	if err := volume.Read(5, buf); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if buf[0] != 5 || buf[2] != 7 {
		t.Fatalf("wanted `[5 6 7]`; found `%v`", buf)
	}

	if err := volume.Read(8, nil); err != nil {
		t.Fatalf("empty read at end: unexpected err: %v", err)
	}
}

func TestMemoryVolume_ReadOutOfRange(t *testing.T) {
	volume := NewMemoryVolume(make([]byte, 8))
	for _, testCase := range []struct {
		name   string
		offset uint64
		length int
	}{
		{name: "straddles end", offset: 6, length: 3},
		{name: "past end", offset: 9, length: 1},
		{name: "offset overflow", offset: ^uint64(0), length: 2},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			err := volume.Read(testCase.offset, make([]byte, testCase.length))
			var readErr ErrRead
			if !errors.As(err, &readErr) {
				t.Fatalf("wanted `ErrRead`; found `%v`", err)
			}
			if readErr.Size != 8 {
				t.Fatalf("wanted size `8`; found `%d`", readErr.Size)
			}
		})
	}
}

func TestFileVolume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("writing image: %v", err)
	}

	volume, err := OpenFileVolume(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer volume.Close()

	if volume.Size() != 10 {
		t.Fatalf("wanted size `10`; found `%d`", volume.Size())
	}

	buf := make([]byte, 4)
	if err := volume.Read(3, buf); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(buf) != "3456" {
		t.Fatalf("wanted `3456`; found `%s`", buf)
	}

	if err := volume.Read(8, buf); !errors.As(err, &ErrRead{}) {
		t.Fatalf("wanted `ErrRead`; found `%v`", err)
	}
}

func TestOpenFileVolume_Missing(t *testing.T) {
	_, err := OpenFileVolume(filepath.Join(t.TempDir(), "missing.img"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted `os.ErrNotExist`; found `%v`", err)
	}
}
