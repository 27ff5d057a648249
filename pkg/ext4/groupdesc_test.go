package ext4

import (
	"encoding/binary"
	"testing"
)

func TestDecodeGroupDesc(t *testing.T) {
	b := make([]byte, GroupDescSize)
	binary.LittleEndian.PutUint16(b[0:], 0x0102)
	binary.LittleEndian.PutUint16(b[2:], 7)
	binary.LittleEndian.PutUint16(b[4:], 0x0112)
	binary.LittleEndian.PutUint16(b[8:], 0x0122)
	binary.LittleEndian.PutUint16(b[12:], 31000)
	binary.LittleEndian.PutUint16(b[16:], 7000)
	binary.LittleEndian.PutUint16(b[20:], 2)

	desc, err := DecodeGroupDesc(b)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if len(desc.Fields) != 12 {
		t.Fatalf("wanted `12` fields; found `%d`", len(desc.Fields))
	}
	for _, testCase := range []struct {
		name   string
		found  uint64
		wanted uint64
	}{
		{"block bitmap", desc.BlockBitmapBlock(), 0x0102},
		{"inode bitmap", desc.InodeBitmapBlock(), 0x0112},
		{"inode table", desc.InodeTableBlock(), 0x0122},
		{"free blocks", desc.FreeBlocksCount(), 31000},
		{"free inodes", desc.FreeInodesCount(), 7000},
		{"used dirs", desc.UsedDirsCount(), 2},
	} {
		if testCase.found != testCase.wanted {
			t.Fatalf(
				"%s: wanted `%d`; found `%d`",
				testCase.name,
				testCase.wanted,
				testCase.found,
			)
		}
	}

	upper, _ := desc.Fields.Get("blockBitmapBlockUpper")
	if upper.Value.Uint() != 7 {
		t.Fatalf("upper half: wanted `7`; found `%s`", upper.Value)
	}
	if upper.Hex() != "0700" {
		t.Fatalf("upper half hex: wanted `0700`; found `%s`", upper.Hex())
	}
}

func TestDecodeGroupDesc_Truncated(t *testing.T) {
	if _, err := DecodeGroupDesc(make([]byte, 20)); err == nil {
		t.Fatal("wanted err decoding a truncated descriptor; found `nil`")
	}
}
