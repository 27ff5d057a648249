package pgartifactstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openStore(t *testing.T, image string) *PGArtifactStore {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set; skipping postgres tests")
	}
	db, err := OpenEnv()
	if err != nil {
		t.Fatalf("unexpected error opening artifact store database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := &PGArtifactStore{DB: db, Table: "artifacts_test", Image: image}
	if err := store.DropTable(context.Background()); err != nil {
		t.Fatalf("unexpected error resetting table: %v", err)
	}
	return store
}

func TestPGArtifactStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, "rootfs")
	if err := store.Prepare(ctx, 4); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	for _, a := range []Artifact{
		{Path: "1-Superblock-Info.txt", Content: []byte("| LABEL")},
		{Path: "0-Boot-Hex.txt", Content: []byte("0000")},
		{Path: "0-Boot-Hex.txt", Content: []byte("eb63")},
	} {
		if err := store.Write(ctx, a.Path, a.Content); err != nil {
			t.Fatalf("writing `%s`: unexpected err: %v", a.Path, err)
		}
	}

	found, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing entries: %v", err)
	}
	if diff := cmp.Diff(
		[]Artifact{
			{Path: "0-Boot-Hex.txt", Content: []byte("eb63")},
			{Path: "1-Superblock-Info.txt", Content: []byte("| LABEL")},
		},
		found,
	); diff != "" {
		t.Fatalf("artifacts (-wanted +found):\n%s", diff)
	}

	other := &PGArtifactStore{DB: store.DB, Table: store.Table, Image: "other"}
	if err := other.Prepare(ctx, 1); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if found, _ := store.List(ctx); len(found) != 2 {
		t.Fatalf("preparing another image cleared `%d` artifacts", 2-len(found))
	}

	if err := store.Prepare(ctx, 4); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err = store.Get(ctx, "0-Boot-Hex.txt")
	if !errors.As(err, new(*ErrArtifactNotFound)) {
		t.Fatalf("wanted `*ErrArtifactNotFound`; found `%v`", err)
	}
}
