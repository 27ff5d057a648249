package ext4

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	SuperblockMagic uint16 = 0xef53

	// BootSize is the size of the boot sector region that precedes the
	// superblock.
	BootSize = 1024

	// SuperblockSize is the size allocated for the superblock on disk.
	// The superblock doesn't actually use this much size; it seems to be more
	// of an upper-bound in case more fields were added to the superblock.
	SuperblockSize   = 1024
	SuperblockOffset = BootSize
)

// Superblock is the decoded field set of the superblock, in on-disk order.
type Superblock struct {
	Fields Fields
}

type ErrBadMagic struct {
	Found uint16
}

func (err ErrBadMagic) Error() string {
	return fmt.Sprintf(
		"bad magic: wanted `0x%2X`; found `%0#2x`",
		SuperblockMagic,
		err.Found,
	)
}

func DecodeSuperblock(b []byte) (Superblock, error) {
	r := fieldReader{b: b}
	r.uint("totalInodeCount", "Total inode count", 0, 4)
	r.uint("totalBlockCount", "Total block count", 4, 4)
	r.uint("reservedBlockCount", "Reserved block count", 8, 4)
	r.uint("freeBlockCount", "Free block count", 12, 4)
	r.uint("freeInodeCount", "Free inode count", 16, 4)
	r.uint("firstDataBlock", "First data block", 20, 4)
	r.shifted("blockSize", "Block size", 24, 4)
	r.shifted("fragmentSize", "Fragment size", 28, 4)
	r.uint("blocksPerGroup", "Blocks per group", 32, 4)
	r.uint("fragmentsPerGroup", "Fragments per group", 36, 4)
	r.uint("inodesPerGroup", "Inodes per group", 40, 4)
	r.uint("mountTime", "Mount time", 44, 4)
	r.uint("writeTime", "Write time", 48, 4)
	r.uint("mountCount", "Mount count", 52, 2)
	r.uint("maximalMountCount", "Maximal mount count", 54, 2)
	r.hexUint("magicSignature", "Magic signature", 56, 2)
	r.uint("fileSystemState", "File system state", 58, 2)
	r.uint("errorBehaviour", "Behaviour when detecting errors", 60, 2)
	r.uint("minorRevisionLevel", "Minor revision level", 62, 2)
	r.uint("lastCheck", "Last check", 64, 4)
	r.uint("checkInterval", "Maximal time between checks", 68, 4)
	r.uint("creatorOS", "OS", 72, 4)
	r.uint("revisionLevel", "Revision level", 76, 4)
	r.uint("defaultReservedUID", "Default uid for reserved blocks", 80, 2)
	r.uint("defaultReservedGID", "Default gid for reserved blocks", 82, 2)
	r.uint("firstNonReservedInode", "First non-reserved inode", 84, 4)
	r.uint("inodeStructureSize", "Size of inode structure", 88, 2)
	r.uint("blockGroupNumber", "Block group number of this superblock", 90, 2)
	r.uint("compatibleFeatures", "Compatible feature set", 92, 4)
	r.uint("incompatibleFeatures", "Incompatible feature set", 96, 4)
	r.uint("readOnlyCompatibleFeatures", "Read-only compatible feature set", 100, 4)
	r.hexBytes("volumeUUID", "128-bit uuid for volume", 104, 16)
	r.text("volumeName", "Volume name", 120, 16)
	r.text("lastMountedDirectory", "Directory where filesystem was last mounted", 136, 64)
	r.uint("algorithmUsageBitmap", "Algorithm usage bitmap", 200, 4)
	if r.err != nil {
		return Superblock{}, fmt.Errorf("decoding superblock: %w", r.err)
	}
	return Superblock{Fields: r.fields}, nil
}

// Validate checks the magic signature. Decoding never validates on its own;
// callers opt in.
func (sb *Superblock) Validate() error {
	f, _ := sb.Fields.Get("magicSignature")
	magic := uint16(f.rawUint())
	if magic != SuperblockMagic {
		return fmt.Errorf("validating superblock: %w", ErrBadMagic{magic})
	}
	return nil
}

// BlockSize is `1024 << s_log_block_size`.
func (sb *Superblock) BlockSize() uint64 { return sb.Fields.Uint("blockSize") }

func (sb *Superblock) BlocksCount() uint64 {
	return sb.Fields.Uint("totalBlockCount")
}

func (sb *Superblock) BlocksPerGroup() uint64 {
	return sb.Fields.Uint("blocksPerGroup")
}

func (sb *Superblock) InodesPerGroup() uint64 {
	return sb.Fields.Uint("inodesPerGroup")
}

func (sb *Superblock) InodeSize() uint64 {
	return sb.Fields.Uint("inodeStructureSize")
}

// GroupCount is the number of block groups implied by the block counts.
func (sb *Superblock) GroupCount() uint64 {
	a := sb.BlocksCount()
	b := sb.BlocksPerGroup()
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (sb *Superblock) UUID() uuid.UUID {
	f, _ := sb.Fields.Get("volumeUUID")
	id, err := uuid.FromBytes(f.Raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (sb *Superblock) VolumeName() string {
	f, _ := sb.Fields.Get("volumeName")
	return f.Value.String()
}
