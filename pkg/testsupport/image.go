package testsupport

import (
	"encoding/binary"
	"math/bits"

	"github.com/weberc2/extinspect/pkg/ext4"
)

// Image builds a small, synthetic ext4 image with a valid superblock, one
// descriptor per group and an all-zero inode table per group. Inode records
// are placed with SetInode.
//
// Group `g` keeps its block bitmap, inode bitmap and inode table in
// consecutive blocks following the descriptor table, in group order.
type Image struct {
	BlockSize      int
	InodeSize      int
	InodesPerGroup int
	Groups         int
	BlocksPerGroup int

	buf []byte
}

// NewImage lays out an image. `blockSize` must be a power of two of at least
// 1024.
func NewImage(blockSize, inodeSize, inodesPerGroup, groups int) *Image {
	img := Image{
		BlockSize:      blockSize,
		InodeSize:      inodeSize,
		InodesPerGroup: inodesPerGroup,
		Groups:         groups,
	}

	needed := img.firstGroupBlock() + groups*(2+img.tableBlocks())
	img.BlocksPerGroup = (needed + groups - 1) / groups
	img.buf = make([]byte, img.BlocksPerGroup*groups*blockSize)

	sb := img.buf[ext4.SuperblockOffset : ext4.SuperblockOffset+ext4.SuperblockSize]
	binary.LittleEndian.PutUint32(sb[0:], uint32(inodesPerGroup*groups))
	binary.LittleEndian.PutUint32(sb[4:], uint32(img.BlocksPerGroup*groups))
	binary.LittleEndian.PutUint32(sb[24:], uint32(bits.TrailingZeros(uint(blockSize/1024))))
	binary.LittleEndian.PutUint32(sb[28:], uint32(bits.TrailingZeros(uint(blockSize/1024))))
	binary.LittleEndian.PutUint32(sb[32:], uint32(img.BlocksPerGroup))
	binary.LittleEndian.PutUint32(sb[36:], uint32(img.BlocksPerGroup))
	binary.LittleEndian.PutUint32(sb[40:], uint32(inodesPerGroup))
	binary.LittleEndian.PutUint16(sb[56:], ext4.SuperblockMagic)
	binary.LittleEndian.PutUint32(sb[76:], 1)
	binary.LittleEndian.PutUint16(sb[88:], uint16(inodeSize))
	copy(sb[120:], "synthetic")
	if blockSize == 1024 {
		binary.LittleEndian.PutUint32(sb[20:], 1)
	}

	for g := 0; g < groups; g++ {
		desc := img.buf[img.DescriptorTableOffset()+g*ext4.GroupDescSize:]
		binary.LittleEndian.PutUint16(desc[0:], uint16(img.BlockBitmapBlock(g)))
		binary.LittleEndian.PutUint16(desc[4:], uint16(img.InodeBitmapBlock(g)))
		binary.LittleEndian.PutUint16(desc[8:], uint16(img.InodeTableBlock(g)))
	}
	return &img
}

// DescriptorTableOffset is the byte offset of the block following the
// superblock.
func (img *Image) DescriptorTableOffset() int {
	return img.descriptorTableBlock() * img.BlockSize
}

func (img *Image) descriptorTableBlock() int {
	return 1024/img.BlockSize + 1
}

func (img *Image) firstGroupBlock() int {
	return img.descriptorTableBlock() + 1
}

func (img *Image) tableBlocks() int {
	return (img.InodeSize*img.InodesPerGroup + img.BlockSize - 1) / img.BlockSize
}

func (img *Image) BlockBitmapBlock(group int) int {
	return img.firstGroupBlock() + group*(2+img.tableBlocks())
}

func (img *Image) InodeBitmapBlock(group int) int {
	return img.BlockBitmapBlock(group) + 1
}

func (img *Image) InodeTableBlock(group int) int {
	return img.BlockBitmapBlock(group) + 2
}

// SetInode copies `record` into inode slot `slot` of group `group`.
func (img *Image) SetInode(group, slot int, record []byte) {
	offset := img.InodeTableBlock(group)*img.BlockSize + slot*img.InodeSize
	copy(img.buf[offset:offset+img.InodeSize], record)
}

// Superblock returns the mutable superblock region.
func (img *Image) Superblock() []byte {
	return img.buf[ext4.SuperblockOffset : ext4.SuperblockOffset+ext4.SuperblockSize]
}

// Bytes returns the image. It aliases the builder's buffer.
func (img *Image) Bytes() []byte { return img.buf }

// RegularFileInode returns an `InodeSize`-byte record for a 0644 regular file
// of `size` bytes with a single leaf extent.
func RegularFileInode(inodeSize int, size uint32, physicalBlock uint32) []byte {
	b := make([]byte, inodeSize)
	binary.LittleEndian.PutUint16(b[0:], 0x81a4)
	binary.LittleEndian.PutUint32(b[4:], size)
	binary.LittleEndian.PutUint16(b[26:], 1)
	binary.LittleEndian.PutUint32(b[32:], 0x80000)

	iblock := b[ext4.BlockPointerOffset:]
	binary.LittleEndian.PutUint16(iblock[0:], ext4.ExtentMagic)
	binary.LittleEndian.PutUint16(iblock[2:], 1)
	binary.LittleEndian.PutUint16(iblock[4:], ext4.RootExtentEntries)
	binary.LittleEndian.PutUint32(iblock[12:], 0)
	binary.LittleEndian.PutUint16(iblock[16:], 1)
	binary.LittleEndian.PutUint32(iblock[20:], physicalBlock)
	if inodeSize > ext4.GoodOldInodeSize {
		binary.LittleEndian.PutUint16(b[128:], 32)
	}
	return b
}
