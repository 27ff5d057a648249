package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/weberc2/extinspect/pkg/objectstore"
)

// ObjectStoreSink writes artifacts as objects named `Prefix/path` in
// `Bucket`.
type ObjectStoreSink struct {
	Store  objectstore.ObjectStore
	Bucket string
	Prefix string
}

func (sink *ObjectStoreSink) key(p string) string {
	if sink.Prefix == "" {
		return p
	}
	return path.Join(sink.Prefix, p)
}

// Prepare deletes every object under the prefix. Object stores have no
// directories, so nothing is created per group.
func (sink *ObjectStoreSink) Prepare(ctx context.Context, groups int) error {
	if sink.Prefix == "" {
		return &ErrWrite{
			Path: sink.Bucket,
			Err:  fmt.Errorf("refusing to clear bucket `%s` without a prefix", sink.Bucket),
		}
	}
	prefix := sink.key("") + "/"
	keys, err := sink.Store.ListObjects(ctx, sink.Bucket, prefix)
	if err != nil {
		return &ErrWrite{Path: prefix, Err: err}
	}
	for _, key := range keys {
		if err := sink.Store.DeleteObject(ctx, sink.Bucket, key); err != nil {
			return &ErrWrite{Path: key, Err: err}
		}
	}
	return nil
}

func (sink *ObjectStoreSink) Write(ctx context.Context, p string, content []byte) error {
	if err := sink.Store.PutObject(
		ctx,
		sink.Bucket,
		sink.key(p),
		bytes.NewReader(content),
	); err != nil {
		return &ErrWrite{Path: p, Err: err}
	}
	return nil
}

var _ Sink = &ObjectStoreSink{}
