package ext4

import "fmt"

// DecodeBoot returns the boot sector region. Nothing in it is interpreted.
func DecodeBoot(b []byte) ([]byte, error) {
	boot, err := Slice(b, 0, BootSize)
	if err != nil {
		return nil, fmt.Errorf("decoding boot sector: %w", err)
	}
	return append([]byte(nil), boot...), nil
}
