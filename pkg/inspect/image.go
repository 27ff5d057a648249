package inspect

import (
	"fmt"

	"github.com/weberc2/extinspect/pkg/ext4"
	"github.com/weberc2/extinspect/pkg/volume"
)

// maxRegion bounds a single metadata read so that a corrupt superblock can't
// request an absurd allocation.
const maxRegion = 1 << 30

// Image reads and decodes metadata regions from a volume on demand.
type Image struct {
	Volume volume.Volume
	Config Config
}

func (img *Image) read(what string, offset, length uint64) ([]byte, error) {
	if length > maxRegion {
		return nil, fmt.Errorf(
			"reading %s: length `%d` at offset `%d` exceeds `%d`",
			what,
			length,
			offset,
			maxRegion,
		)
	}
	buf := make([]byte, length)
	if err := img.Volume.Read(offset, buf); err != nil {
		return nil, fmt.Errorf("reading %s at offset `%d`: %w", what, offset, err)
	}
	return buf, nil
}

func (img *Image) Boot() ([]byte, error) {
	buf, err := img.read("boot sector", 0, ext4.BootSize)
	if err != nil {
		return nil, err
	}
	return ext4.DecodeBoot(buf)
}

// Superblock returns the decoded superblock and its raw bytes. The magic is
// checked only when Config.ValidateMagic is set.
func (img *Image) Superblock() (ext4.Superblock, []byte, error) {
	buf, err := img.read("superblock", ext4.SuperblockOffset, ext4.SuperblockSize)
	if err != nil {
		return ext4.Superblock{}, nil, err
	}
	sb, err := ext4.DecodeSuperblock(buf)
	if err != nil {
		return ext4.Superblock{}, nil, fmt.Errorf(
			"superblock at offset `%d`: %w",
			ext4.SuperblockOffset,
			err,
		)
	}
	if img.Config.ValidateMagic {
		if err := sb.Validate(); err != nil {
			return ext4.Superblock{}, nil, err
		}
	}
	return sb, buf, nil
}

// Layout decodes the superblock and resolves the geometry from it.
func (img *Image) Layout() (ext4.Superblock, Geometry, error) {
	sb, _, err := img.Superblock()
	if err != nil {
		return ext4.Superblock{}, Geometry{}, err
	}
	g, err := img.Config.Geometry(&sb)
	if err != nil {
		return ext4.Superblock{}, Geometry{}, err
	}
	return sb, g, nil
}

// DescriptorTable reads the block holding the group descriptors.
func (img *Image) DescriptorTable(g *Geometry) ([]byte, error) {
	return img.read("descriptor table", g.DescriptorTableOffset(), g.BlockSize)
}

// Group holds the metadata regions of one block group.
type Group struct {
	Index         int
	Descriptor    ext4.GroupDesc
	DescriptorRaw []byte
	BlockBitmap   []byte
	InodeBitmap   []byte
	InodeTable    []byte

	inodeSize int
}

// Group decodes the descriptor of group `index` from `table` and reads the
// regions it points to. Block numbers are taken from the lower halves of the
// descriptor fields.
func (img *Image) Group(g *Geometry, table []byte, index int) (Group, error) {
	offset := uint64(index) * g.DescriptorSize
	raw, err := ext4.Slice(table, int(offset), ext4.GroupDescSize)
	if err != nil {
		return Group{}, fmt.Errorf(
			"descriptor at table offset `%d`: %w",
			offset,
			err,
		)
	}
	desc, err := ext4.DecodeGroupDesc(raw)
	if err != nil {
		return Group{}, fmt.Errorf(
			"descriptor at table offset `%d`: %w",
			offset,
			err,
		)
	}

	group := Group{
		Index:         index,
		Descriptor:    desc,
		DescriptorRaw: append([]byte(nil), raw...),
		inodeSize:     int(g.InodeSize),
	}
	if group.BlockBitmap, err = img.read(
		"block bitmap",
		desc.BlockBitmapBlock()*g.BlockSize,
		g.BlockSize,
	); err != nil {
		return Group{}, err
	}
	if group.InodeBitmap, err = img.read(
		"inode bitmap",
		desc.InodeBitmapBlock()*g.BlockSize,
		g.BlockSize,
	); err != nil {
		return Group{}, err
	}
	if group.InodeTable, err = img.read(
		"inode table",
		desc.InodeTableBlock()*g.BlockSize,
		g.InodeTableSize(),
	); err != nil {
		return Group{}, err
	}
	return group, nil
}

// Inode decodes inode slot `slot` (0-based) of the group's inode table.
// It returns `false` for unused slots.
func (group *Group) Inode(slot int) (ext4.Inode, []byte, bool, error) {
	offset := slot * group.inodeSize
	raw, err := ext4.Slice(group.InodeTable, offset, group.inodeSize)
	if err != nil {
		return ext4.Inode{}, nil, false, fmt.Errorf(
			"inode slot `%d` at table offset `%d`: %w",
			slot,
			offset,
			err,
		)
	}
	inode, ok, err := ext4.DecodeInode(raw)
	if err != nil {
		return ext4.Inode{}, nil, false, fmt.Errorf(
			"inode slot `%d` at table offset `%d`: %w",
			slot,
			offset,
			err,
		)
	}
	if !ok {
		return ext4.Inode{}, nil, false, nil
	}
	return inode, append([]byte(nil), raw...), true, nil
}

// Slots is the number of inode slots in the group's inode table.
func (group *Group) Slots() int {
	if group.inodeSize == 0 {
		return 0
	}
	return len(group.InodeTable) / group.inodeSize
}
