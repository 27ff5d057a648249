package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/weberc2/extinspect/pkg/artifact"
)

// SinkFake records prepared groups and written artifacts in memory. Paths
// holds every write in order; Artifacts holds the latest content per path.
type SinkFake struct {
	lock      sync.Mutex
	Prepared  int
	Paths     []string
	Artifacts map[string][]byte

	// FailPath, when set, makes writes to that path fail.
	FailPath string
}

func (sink *SinkFake) Prepare(ctx context.Context, groups int) error {
	sink.lock.Lock()
	defer sink.lock.Unlock()
	sink.Prepared = groups
	sink.Paths = nil
	sink.Artifacts = map[string][]byte{}
	return nil
}

func (sink *SinkFake) Write(ctx context.Context, path string, content []byte) error {
	sink.lock.Lock()
	defer sink.lock.Unlock()
	if path == sink.FailPath {
		return &artifact.ErrWrite{
			Path: path,
			Err:  fmt.Errorf("injected failure"),
		}
	}
	if sink.Artifacts == nil {
		sink.Artifacts = map[string][]byte{}
	}
	sink.Paths = append(sink.Paths, path)
	sink.Artifacts[path] = append([]byte(nil), content...)
	return nil
}

var _ artifact.Sink = &SinkFake{}
