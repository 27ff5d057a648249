package ext4

import "fmt"

// The root of an inode's extent tree lives in `i_block`: a 12-byte header
// followed by up to four 12-byte entries. When the header's depth is zero the
// entries are leaf extents pointing at data blocks; otherwise they are index
// entries pointing at child tree blocks, which are not followed.
const (
	ExtentMagic uint16 = 0xf30a

	ExtentHeaderSize = 12
	ExtentEntrySize  = 12

	// RootExtentEntries is the number of entry slots in `i_block` after the
	// header.
	RootExtentEntries = (BlockPointerSize - ExtentHeaderSize) / ExtentEntrySize
)

type ExtentHeader struct {
	Magic      uint16
	Entries    uint16
	Max        uint16
	Depth      uint16
	Generation uint32
}

// IsLeaf reports whether the entries following the header are leaf extents.
func (h ExtentHeader) IsLeaf() bool { return h.Depth == 0 }

// Extent is a leaf entry: a run of `Length` file blocks starting at logical
// block `LogicalBlock`, stored at physical block `PhysicalBlock()`.
type Extent struct {
	LogicalBlock      uint32
	Length            uint16
	PhysicalBlockHigh uint16
	PhysicalBlockLow  uint32
}

func (e Extent) PhysicalBlock() uint64 {
	return uint64(e.PhysicalBlockHigh)<<32 | uint64(e.PhysicalBlockLow)
}

// ExtentIndex is an interior entry covering file blocks from `Block` onward.
// `Start` holds the upper 16 bits of the child node's block number.
type ExtentIndex struct {
	Block         uint32
	LeafNodeBlock uint32
	Start         uint16
}

// ExtentTree is the root node of an inode's extent tree.
type ExtentTree struct {
	Header  ExtentHeader
	Extents []Extent
	Indexes []ExtentIndex
}

// DecodeExtentTree decodes the root node of an extent tree from the 60-byte
// block pointer area of an inode.
func DecodeExtentTree(b []byte) (ExtentTree, Fields, error) {
	r := fieldReader{b: b}
	tree := decodeExtentTree(&r)
	if r.err != nil {
		return ExtentTree{}, nil, fmt.Errorf("decoding extent tree: %w", r.err)
	}
	return tree, r.fields, nil
}

// decodeExtentTree declares the header and every populated entry of the root
// node held in `r.b`. Entry keys are index-qualified (`extent-1-length`,
// `extent-index-2-block`, ...) so that every entry survives in the output.
func decodeExtentTree(r *fieldReader) ExtentTree {
	var tree ExtentTree
	r.hexUint("extentHeaderMagic", "Extent header: Magic signature", 0, 2)
	r.uint("extentHeaderEntries", "Extent header: Number of entries", 2, 2)
	r.uint("extentHeaderMax", "Extent header: Capacity of entries", 4, 2)
	r.uint("extentHeaderDepth", "Extent header: Depth", 6, 2)
	r.uint("extentHeaderGeneration", "Extent header: Generation", 8, 4)
	if r.err != nil {
		return tree
	}

	tree.Header = ExtentHeader{
		Magic:      uint16(r.last(5).rawUint()),
		Entries:    uint16(r.last(4).Value.Uint()),
		Max:        uint16(r.last(3).Value.Uint()),
		Depth:      uint16(r.last(2).Value.Uint()),
		Generation: uint32(r.last(1).Value.Uint()),
	}

	entries := int(tree.Header.Entries)
	if entries > RootExtentEntries {
		entries = RootExtentEntries
	}

	for i := 0; i < entries && r.err == nil; i++ {
		offset := ExtentHeaderSize + i*ExtentEntrySize
		n := i + 1
		if tree.Header.IsLeaf() {
			prefix := fmt.Sprintf("extent-%d-", n)
			label := fmt.Sprintf("Extent %d: ", n)
			r.uint(prefix+"logicalBlock", label+"Logical block numbers", offset, 4)
			r.uint(prefix+"length", label+"No. of blocks", offset+4, 2)
			r.uint(prefix+"physicalBlockHigh16", label+"1st block upper 16-bit", offset+6, 2)
			r.uint(prefix+"physicalBlockLow32", label+"1st block lower 32-bit", offset+8, 4)
			if r.err != nil {
				break
			}
			tree.Extents = append(tree.Extents, Extent{
				LogicalBlock:      uint32(r.last(4).Value.Uint()),
				Length:            uint16(r.last(3).Value.Uint()),
				PhysicalBlockHigh: uint16(r.last(2).Value.Uint()),
				PhysicalBlockLow:  uint32(r.last(1).Value.Uint()),
			})
		} else {
			prefix := fmt.Sprintf("extent-index-%d-", n)
			label := fmt.Sprintf("Extent index %d: ", n)
			r.uint(prefix+"block", label+"Block", offset, 4)
			r.uint(prefix+"leafNodeBlock", label+"Leaf node block", offset+4, 4)
			r.uint(prefix+"start", label+"Start", offset+8, 2)
			if r.err != nil {
				break
			}
			tree.Indexes = append(tree.Indexes, ExtentIndex{
				Block:         uint32(r.last(3).Value.Uint()),
				LeafNodeBlock: uint32(r.last(2).Value.Uint()),
				Start:         uint16(r.last(1).Value.Uint()),
			})
		}
	}
	return tree
}
