package ext4

import "fmt"

const (
	// GroupDescSize is the size of one block group descriptor record in the
	// descriptor table.
	GroupDescSize = 32
)

// GroupDesc is the decoded field set of a block group descriptor. Each 32-bit
// quantity is recorded as its lower and upper 16-bit halves.
type GroupDesc struct {
	Fields Fields
}

func DecodeGroupDesc(b []byte) (GroupDesc, error) {
	r := fieldReader{b: b}
	r.uint("blockBitmapBlockLower", "Block bitmap block lower", 0, 2)
	r.uint("blockBitmapBlockUpper", "Block bitmap block upper", 2, 2)
	r.uint("inodeBitmapBlockLower", "Inode bitmap block lower", 4, 2)
	r.uint("inodeBitmapBlockUpper", "Inode bitmap block upper", 6, 2)
	r.uint("inodeTableBlockLower", "Inode table block lower", 8, 2)
	r.uint("inodeTableBlockUpper", "Inode table block upper", 10, 2)
	r.uint("freeBlockCountLower", "Free block count lower", 12, 2)
	r.uint("freeBlockCountUpper", "Free block count upper", 14, 2)
	r.uint("freeInodeCountLower", "Free inode count lower", 16, 2)
	r.uint("freeInodeCountUpper", "Free inode count upper", 18, 2)
	r.uint("usedDirectoryCountLower", "Used directory count lower", 20, 2)
	r.uint("usedDirectoryCountUpper", "Used directory count upper", 22, 2)
	if r.err != nil {
		return GroupDesc{}, fmt.Errorf("decoding group descriptor: %w", r.err)
	}
	return GroupDesc{Fields: r.fields}, nil
}

// NB: The effective block numbers below come from the lower halves only; the
// upper halves are decoded and reported but never combined.

func (desc *GroupDesc) BlockBitmapBlock() uint64 {
	return desc.Fields.Uint("blockBitmapBlockLower")
}

func (desc *GroupDesc) InodeBitmapBlock() uint64 {
	return desc.Fields.Uint("inodeBitmapBlockLower")
}

func (desc *GroupDesc) InodeTableBlock() uint64 {
	return desc.Fields.Uint("inodeTableBlockLower")
}

func (desc *GroupDesc) FreeBlocksCount() uint64 {
	return desc.Fields.Uint("freeBlockCountLower")
}

func (desc *GroupDesc) FreeInodesCount() uint64 {
	return desc.Fields.Uint("freeInodeCountLower")
}

func (desc *GroupDesc) UsedDirsCount() uint64 {
	return desc.Fields.Uint("usedDirectoryCountLower")
}
