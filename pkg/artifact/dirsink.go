package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes artifacts as files under `Root`.
type DirSink struct {
	Root string
}

func (sink *DirSink) Prepare(ctx context.Context, groups int) error {
	if sink.Root == "" || sink.Root == "/" {
		return &ErrWrite{
			Path: sink.Root,
			Err:  fmt.Errorf("refusing to clear output root `%s`", sink.Root),
		}
	}
	if err := os.RemoveAll(sink.Root); err != nil {
		return &ErrWrite{Path: sink.Root, Err: err}
	}
	if err := os.MkdirAll(sink.Root, 0755); err != nil {
		return &ErrWrite{Path: sink.Root, Err: err}
	}
	for group := 0; group < groups; group++ {
		dir := filepath.Join(sink.Root, GroupDir(group))
		if err := os.Mkdir(dir, 0755); err != nil {
			return &ErrWrite{Path: dir, Err: err}
		}
	}
	return nil
}

func (sink *DirSink) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return &ErrWrite{Path: path, Err: err}
	}
	if err := os.WriteFile(
		filepath.Join(sink.Root, filepath.FromSlash(path)),
		content,
		0644,
	); err != nil {
		return &ErrWrite{Path: path, Err: err}
	}
	return nil
}

var _ Sink = &DirSink{}
