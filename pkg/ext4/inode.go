package ext4

import "fmt"

const (
	// InodeSize is the on-disk inode record size used by the images this
	// tool targets (`s_inode_size`).
	InodeSize = 256

	// GoodOldInodeSize is the record size of revision 0 filesystems. Records
	// longer than this carry the extended fields.
	GoodOldInodeSize = 128

	// BlockPointerOffset and BlockPointerSize locate `i_block`, which holds
	// the root of the extent tree.
	BlockPointerOffset = 40
	BlockPointerSize   = 60
)

type Inode struct {
	Fields Fields
	Mode   Mode
	Tree   ExtentTree
}

// DecodeInode decodes one inode record. A record whose mode is zero is an
// unused slot: DecodeInode returns `false` and no fields.
func DecodeInode(b []byte) (Inode, bool, error) {
	mode, err := ReadUint(b, 0, 2)
	if err != nil {
		return Inode{}, false, fmt.Errorf("decoding inode mode: %w", err)
	}
	if mode == 0 {
		return Inode{}, false, nil
	}

	r := fieldReader{b: b}
	r.uint("mode", "Mode", 0, 2)
	r.uint("ownerUID", "Owner UID", 2, 2)
	r.uint("size", "Size", 4, 4)
	r.uint("accessTime", "Access time", 8, 4)
	r.uint("changeTime", "Change time", 12, 4)
	r.uint("modifiedTime", "Modification time", 16, 4)
	r.uint("deletedTime", "Deletion time", 20, 4)
	r.uint("groupID", "Group ID", 24, 2)
	r.uint("hardLinkCount", "Hard link count", 26, 2)
	r.uint("blockCountLower", "Lower 32-bits of block count", 28, 4)
	r.uint("flags", "Flags", 32, 4)
	r.uint("osSpecificValue1", "OS specific value 1", 36, 4)

	var tree ExtentTree
	if r.err == nil {
		iblock, err := Slice(b, BlockPointerOffset, BlockPointerSize)
		if err != nil {
			r.err = fmt.Errorf("block pointer area: %w", err)
		} else {
			var fields Fields
			tree, fields, err = DecodeExtentTree(iblock)
			if err != nil {
				r.err = err
			}
			r.fields = append(r.fields, fields...)
		}
	}

	r.uint("fileVersion", "File version", 100, 4)
	r.uint("fileACL", "File ACL", 104, 4)
	r.uint("fileSizeUpper", "File size upper", 108, 4)
	r.uint("fragmentAddress", "Fragment address", 112, 4)
	r.uint("blockCountUpper", "Upper 16-bits of block count", 116, 2)
	r.uint("fileACLUpper", "Upper 16-bits of file ACL", 118, 2)
	r.uint("ownerUIDUpper", "Upper 16-bits of owner UID", 120, 2)
	r.uint("groupIDUpper", "Upper 16-bits of group ID", 122, 2)
	r.uint("checksumLower", "Lower 16-bits of the inode checksum", 124, 2)

	if len(b) > GoodOldInodeSize {
		r.uint("extraSize", "Extra size", 128, 2)
		r.uint("checksumUpper", "Upper 16-bits of the inode checksum", 130, 2)
		r.uint("changeTimeExtra", "Extra change time bits", 132, 4)
		r.uint("modifiedTimeExtra", "Extra modification time bits", 136, 4)
		r.uint("accessTimeExtra", "Extra access time bits", 140, 4)
		r.uint("creationTime", "File creation time", 144, 4)
		r.uint("creationTimeExtra", "Extra file creation time bits", 148, 4)
		r.uint("versionUpper", "Upper 32-bits for version number", 152, 4)
		r.uint("projectID", "Project ID", 156, 4)
	}

	if r.err != nil {
		return Inode{}, false, fmt.Errorf("decoding inode: %w", r.err)
	}

	return Inode{
		Fields: r.fields,
		Mode:   DecodeMode(uint16(mode)),
		Tree:   tree,
	}, true, nil
}

// Size is the full 64-bit file size.
func (inode *Inode) Size() uint64 {
	return inode.Fields.Uint("fileSizeUpper")<<32 | inode.Fields.Uint("size")
}
