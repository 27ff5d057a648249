package inspect

import (
	"fmt"

	"github.com/weberc2/extinspect/pkg/ext4"
)

// Config is the static geometry of the image and the bounds of an
// inspection pass.
type Config struct {
	// ImageSize, BlockSize, GroupCount, InodeRatio and InodeSize describe the
	// image as it was created (`mkfs.ext4 -b BlockSize -i InodeRatio -I
	// InodeSize`). InodesPerGroup is derived as
	// `ImageSize / InodeRatio / GroupCount`.
	ImageSize  uint64
	BlockSize  uint64
	GroupCount int
	InodeRatio uint64
	InodeSize  uint64

	// DescriptorSize is the stride of the block group descriptor table.
	DescriptorSize uint64

	// Groups is the number of block groups to process, starting at group 0.
	// Zero processes every group.
	Groups int

	// InodeScanLimit bounds the number of inode slots scanned per group.
	// Zero scans every slot.
	InodeScanLimit int

	// Parallelism is the number of groups decoded concurrently. Artifacts
	// are written in group order regardless.
	Parallelism int

	// GeometryFromSuperblock takes block size, inode size, inodes per group
	// and group count from the decoded superblock instead of the fields
	// above.
	GeometryFromSuperblock bool

	// ValidateMagic aborts the run when the superblock magic is not
	// `0xef53`.
	ValidateMagic bool
}

const (
	DefaultImageSize      = 451 * 1024 * 1024
	DefaultBlockSize      = 4096
	DefaultGroupCount     = 4
	DefaultInodeRatio     = 16384
	DefaultInodeSize      = ext4.InodeSize
	DefaultDescriptorSize = ext4.GroupDescSize
	DefaultInodeScanLimit = 500
)

func DefaultConfig() Config {
	return Config{
		ImageSize:      DefaultImageSize,
		BlockSize:      DefaultBlockSize,
		GroupCount:     DefaultGroupCount,
		InodeRatio:     DefaultInodeRatio,
		InodeSize:      DefaultInodeSize,
		DescriptorSize: DefaultDescriptorSize,
		InodeScanLimit: DefaultInodeScanLimit,
		Parallelism:    1,
	}
}

// Geometry is the resolved layout used to locate group metadata.
type Geometry struct {
	BlockSize      uint64
	InodeSize      uint64
	InodesPerGroup uint64
	GroupCount     int
	DescriptorSize uint64
}

// ErrInvalidGeometry is returned when the configured or decoded layout can't
// be used to locate structures.
type ErrInvalidGeometry struct {
	Field  string
	Value  uint64
	Reason string
}

func (err *ErrInvalidGeometry) Error() string {
	return fmt.Sprintf(
		"invalid geometry: %s `%d`: %s",
		err.Field,
		err.Value,
		err.Reason,
	)
}

// Geometry resolves the layout, from the superblock when
// GeometryFromSuperblock is set and from the static configuration otherwise.
func (c *Config) Geometry(sb *ext4.Superblock) (Geometry, error) {
	var g Geometry
	if c.GeometryFromSuperblock {
		g = Geometry{
			BlockSize:      sb.BlockSize(),
			InodeSize:      sb.InodeSize(),
			InodesPerGroup: sb.InodesPerGroup(),
			GroupCount:     int(sb.GroupCount()),
			DescriptorSize: c.DescriptorSize,
		}
		// revision 0 filesystems leave `s_inode_size` unset
		if g.InodeSize == 0 {
			g.InodeSize = ext4.GoodOldInodeSize
		}
	} else {
		if c.InodeRatio == 0 {
			return Geometry{}, &ErrInvalidGeometry{
				Field:  "inodeRatio",
				Reason: "must be positive",
			}
		}
		if c.GroupCount <= 0 {
			return Geometry{}, &ErrInvalidGeometry{
				Field:  "groupCount",
				Value:  uint64(c.GroupCount),
				Reason: "must be positive",
			}
		}
		g = Geometry{
			BlockSize:      c.BlockSize,
			InodeSize:      c.InodeSize,
			InodesPerGroup: c.ImageSize / c.InodeRatio / uint64(c.GroupCount),
			GroupCount:     c.GroupCount,
			DescriptorSize: c.DescriptorSize,
		}
	}
	if g.DescriptorSize == 0 {
		g.DescriptorSize = ext4.GroupDescSize
	}
	return g, g.validate()
}

func (g *Geometry) validate() error {
	if g.BlockSize < 1024 || g.BlockSize&(g.BlockSize-1) != 0 {
		return &ErrInvalidGeometry{
			Field:  "blockSize",
			Value:  g.BlockSize,
			Reason: "must be a power of two of at least 1024",
		}
	}
	if g.InodeSize < ext4.GoodOldInodeSize || g.InodeSize > g.BlockSize {
		return &ErrInvalidGeometry{
			Field:  "inodeSize",
			Value:  g.InodeSize,
			Reason: fmt.Sprintf("must be within [%d, blockSize]", ext4.GoodOldInodeSize),
		}
	}
	if g.DescriptorSize < ext4.GroupDescSize {
		return &ErrInvalidGeometry{
			Field:  "descriptorSize",
			Value:  g.DescriptorSize,
			Reason: fmt.Sprintf("must be at least %d", ext4.GroupDescSize),
		}
	}
	if g.GroupCount <= 0 {
		return &ErrInvalidGeometry{
			Field:  "groupCount",
			Value:  uint64(g.GroupCount),
			Reason: "must be positive",
		}
	}
	if uint64(g.GroupCount)*g.DescriptorSize > g.BlockSize {
		return &ErrInvalidGeometry{
			Field:  "groupCount",
			Value:  uint64(g.GroupCount),
			Reason: "descriptors don't fit in one descriptor table block",
		}
	}
	return nil
}

// DescriptorTableOffset is the byte offset of the block following the one
// that holds the superblock.
func (g *Geometry) DescriptorTableOffset() uint64 {
	return (ext4.SuperblockOffset/g.BlockSize + 1) * g.BlockSize
}

// InodeTableSize is the byte size of one group's inode table.
func (g *Geometry) InodeTableSize() uint64 {
	return g.InodeSize * g.InodesPerGroup
}

// groups is the number of groups a pass processes.
func (c *Config) groups(g *Geometry) (int, error) {
	if c.Groups < 0 || c.Groups > g.GroupCount {
		return 0, &ErrInvalidGeometry{
			Field:  "groups",
			Value:  uint64(c.Groups),
			Reason: fmt.Sprintf("must be within [0, %d]", g.GroupCount),
		}
	}
	if c.Groups == 0 {
		return g.GroupCount, nil
	}
	return c.Groups, nil
}

// ScanSlots is the number of inode slots scanned per group.
func (c *Config) ScanSlots(g *Geometry) int {
	slots := int(g.InodesPerGroup)
	if c.InodeScanLimit > 0 && c.InodeScanLimit < slots {
		return c.InodeScanLimit
	}
	return slots
}
