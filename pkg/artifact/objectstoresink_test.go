package artifact_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/weberc2/extinspect/pkg/artifact"
	"github.com/weberc2/extinspect/pkg/testsupport"
)

func TestObjectStoreSink(t *testing.T) {
	ctx := context.Background()
	var store testsupport.ObjectStoreFake
	store.Set("images", "rootfs/2-BGDT-Hex.txt", []byte("stale"))
	store.Set("images", "rootfs-old/2-BGDT-Hex.txt", []byte("other image"))
	store.Set("other", "rootfs/BlockGroup-0/x.txt", []byte("other bucket"))
	sink := artifact.ObjectStoreSink{
		Store:  &store,
		Bucket: "images",
		Prefix: "rootfs",
	}

	if err := sink.Prepare(ctx, 4); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := sink.Write(
		ctx,
		artifact.PathFor(artifact.KindSuperblockInfo, 0, 0),
		[]byte("| LABEL"),
	); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	keys, _ := store.ListObjects(ctx, "images", "")
	if diff := cmp.Diff(
		[]string{"rootfs-old/2-BGDT-Hex.txt", "rootfs/1-Superblock-Info.txt"},
		keys,
	); diff != "" {
		t.Fatalf("objects (-wanted +found):\n%s", diff)
	}
	if _, found := store.Object("other", "rootfs/BlockGroup-0/x.txt"); !found {
		t.Fatal("prepare deleted an object from another bucket")
	}
}

func TestObjectStoreSink_RefusesEmptyPrefix(t *testing.T) {
	var store testsupport.ObjectStoreFake
	store.Set("images", "keep.txt", nil)
	sink := artifact.ObjectStoreSink{Store: &store, Bucket: "images"}

	var writeErr *artifact.ErrWrite
	if err := sink.Prepare(context.Background(), 1); !errors.As(err, &writeErr) {
		t.Fatalf("wanted `*artifact.ErrWrite`; found `%v`", err)
	}
	if store.Len() != 1 {
		t.Fatal("prepare without a prefix deleted objects")
	}
}
