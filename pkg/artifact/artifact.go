// Package artifact names the text artifacts produced by an inspection run and
// writes them to storage.
package artifact

import (
	"context"
	"fmt"
)

type Kind int

const (
	KindBootHex Kind = iota
	KindSuperblockHex
	KindSuperblockInfo
	KindBGDTHex
	KindDescriptorHex
	KindDescriptorInfo
	KindBlockBitmapHex
	KindInodeBitmapHex
	KindInodeTableHex
	KindInodeHex
	KindInodeInfo
)

func (kind Kind) String() string {
	switch kind {
	case KindBootHex:
		return "BootHex"
	case KindSuperblockHex:
		return "SuperblockHex"
	case KindSuperblockInfo:
		return "SuperblockInfo"
	case KindBGDTHex:
		return "BGDTHex"
	case KindDescriptorHex:
		return "DescriptorHex"
	case KindDescriptorInfo:
		return "DescriptorInfo"
	case KindBlockBitmapHex:
		return "BlockBitmapHex"
	case KindInodeBitmapHex:
		return "InodeBitmapHex"
	case KindInodeTableHex:
		return "InodeTableHex"
	case KindInodeHex:
		return "InodeHex"
	case KindInodeInfo:
		return "InodeInfo"
	default:
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
}

// GroupDir is the directory holding the artifacts of block group `group`.
func GroupDir(group int) string {
	return fmt.Sprintf("BlockGroup-%d", group)
}

// PathFor returns the slash-separated path, relative to the output root, of
// an artifact. `group` is ignored for image-wide kinds; `inode` is the
// 1-based inode number within the group and is only used by the inode kinds.
func PathFor(kind Kind, group, inode int) string {
	switch kind {
	case KindBootHex:
		return "0-Boot-Hex.txt"
	case KindSuperblockHex:
		return "1-Superblock-Hex.txt"
	case KindSuperblockInfo:
		return "1-Superblock-Info.txt"
	case KindBGDTHex:
		return "2-BGDT-Hex.txt"
	case KindDescriptorHex:
		return GroupDir(group) + "/0-Descriptor-Hex.txt"
	case KindDescriptorInfo:
		return GroupDir(group) + "/0-Descriptor-Info.txt"
	case KindBlockBitmapHex:
		return GroupDir(group) + "/1-BlockBitmap-Hex.txt"
	case KindInodeBitmapHex:
		return GroupDir(group) + "/2-InodeBitmap-Hex.txt"
	case KindInodeTableHex:
		return GroupDir(group) + "/3-InodeTable-Hex.txt"
	case KindInodeHex:
		return fmt.Sprintf("%s/4-Inode-%d-Hex.txt", GroupDir(group), inode)
	case KindInodeInfo:
		return fmt.Sprintf("%s/4-Inode-%d-Info.txt", GroupDir(group), inode)
	default:
		panic(fmt.Sprintf("invalid artifact kind: %d", int(kind)))
	}
}

// Sink stores artifacts. Prepare clears any previous output and creates room
// for the artifacts of groups `0..groups-1`; it runs once before any Write.
type Sink interface {
	Prepare(ctx context.Context, groups int) error
	Write(ctx context.Context, path string, content []byte) error
}

// ErrWrite is returned when a sink fails to store an artifact or to prepare
// its output location.
type ErrWrite struct {
	Path string
	Err  error
}

func (err *ErrWrite) Error() string {
	return fmt.Sprintf("writing artifact `%s`: %v", err.Path, err.Err)
}

func (err *ErrWrite) Unwrap() error { return err.Err }
