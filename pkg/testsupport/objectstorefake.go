package testsupport

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/weberc2/extinspect/pkg/objectstore"
)

// ObjectStoreFake keeps objects in memory, keyed by bucket and then key. The
// zero value is ready to use.
type ObjectStoreFake struct {
	lock    sync.Mutex
	buckets map[string]map[string][]byte
}

// Set stores an object without going through PutObject.
func (osf *ObjectStoreFake) Set(bucket, key string, data []byte) {
	osf.lock.Lock()
	defer osf.lock.Unlock()
	if osf.buckets == nil {
		osf.buckets = map[string]map[string][]byte{}
	}
	if osf.buckets[bucket] == nil {
		osf.buckets[bucket] = map[string][]byte{}
	}
	osf.buckets[bucket][key] = data
}

// Object returns the stored bytes exactly as the wrapped writer left them.
func (osf *ObjectStoreFake) Object(bucket, key string) ([]byte, bool) {
	osf.lock.Lock()
	defer osf.lock.Unlock()
	data, found := osf.buckets[bucket][key]
	return data, found
}

// Len counts the objects across all buckets.
func (osf *ObjectStoreFake) Len() int {
	osf.lock.Lock()
	defer osf.lock.Unlock()
	var n int
	for _, objects := range osf.buckets {
		n += len(objects)
	}
	return n
}

func (osf *ObjectStoreFake) PutObject(
	ctx context.Context,
	bucket string,
	key string,
	data io.ReadSeeker,
) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	osf.Set(bucket, key, b)
	return nil
}

func (osf *ObjectStoreFake) GetObject(
	ctx context.Context,
	bucket string,
	key string,
) (io.ReadCloser, error) {
	data, found := osf.Object(bucket, key)
	if !found {
		return nil, &objectstore.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

// ListObjects returns matching keys in lexical order.
func (osf *ObjectStoreFake) ListObjects(
	ctx context.Context,
	bucket string,
	prefix string,
) ([]string, error) {
	osf.lock.Lock()
	defer osf.lock.Unlock()
	var keys []string
	for key := range osf.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (osf *ObjectStoreFake) DeleteObject(
	ctx context.Context,
	bucket string,
	key string,
) error {
	osf.lock.Lock()
	defer osf.lock.Unlock()
	if _, found := osf.buckets[bucket][key]; !found {
		return &objectstore.ObjectNotFoundErr{Bucket: bucket, Key: key}
	}
	delete(osf.buckets[bucket], key)
	return nil
}

var _ objectstore.ObjectStore = &ObjectStoreFake{}
