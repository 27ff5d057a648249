package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFor(t *testing.T) {
	for _, testCase := range []struct {
		kind   Kind
		group  int
		inode  int
		wanted string
	}{
		{KindBootHex, 3, 9, "0-Boot-Hex.txt"},
		{KindSuperblockHex, 0, 0, "1-Superblock-Hex.txt"},
		{KindSuperblockInfo, 0, 0, "1-Superblock-Info.txt"},
		{KindBGDTHex, 0, 0, "2-BGDT-Hex.txt"},
		{KindDescriptorHex, 2, 0, "BlockGroup-2/0-Descriptor-Hex.txt"},
		{KindDescriptorInfo, 2, 0, "BlockGroup-2/0-Descriptor-Info.txt"},
		{KindBlockBitmapHex, 1, 0, "BlockGroup-1/1-BlockBitmap-Hex.txt"},
		{KindInodeBitmapHex, 1, 0, "BlockGroup-1/2-InodeBitmap-Hex.txt"},
		{KindInodeTableHex, 0, 0, "BlockGroup-0/3-InodeTable-Hex.txt"},
		{KindInodeHex, 0, 12, "BlockGroup-0/4-Inode-12-Hex.txt"},
		{KindInodeInfo, 3, 2, "BlockGroup-3/4-Inode-2-Info.txt"},
	} {
		if found := PathFor(testCase.kind, testCase.group, testCase.inode); found != testCase.wanted {
			t.Fatalf(
				"%s: wanted `%s`; found `%s`",
				testCase.kind,
				testCase.wanted,
				found,
			)
		}
	}
}

func TestDirSink(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "outputs")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(root, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	sink := DirSink{Root: root}
	if err := sink.Prepare(ctx, 2); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted stale output removed; found `%v`", err)
	}
	for _, dir := range []string{"BlockGroup-0", "BlockGroup-1"} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Fatalf("wanted directory `%s`; found `%v`", dir, err)
		}
	}

	path := PathFor(KindInodeHex, 1, 2)
	if err := sink.Write(ctx, path, []byte("a481")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "BlockGroup-1", "4-Inode-2-Hex.txt"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "a481" {
		t.Fatalf("wanted `a481`; found `%s`", data)
	}

	var writeErr *ErrWrite
	err = sink.Write(ctx, PathFor(KindInodeHex, 5, 1), nil)
	if !errors.As(err, &writeErr) {
		t.Fatalf("wanted `*ErrWrite` for an unprepared group; found `%v`", err)
	}
	if writeErr.Path != "BlockGroup-5/4-Inode-1-Hex.txt" {
		t.Fatalf("wanted the failing path; found `%s`", writeErr.Path)
	}
}

func TestDirSink_RefusesEmptyRoot(t *testing.T) {
	sink := DirSink{}
	if err := sink.Prepare(context.Background(), 1); !errors.As(err, new(*ErrWrite)) {
		t.Fatalf("wanted `*ErrWrite`; found `%v`", err)
	}
}
