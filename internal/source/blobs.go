package source

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// blobCache holds manifest bytes keyed by git blob SHA. Concurrent requests
// for one SHA share a single fetch; failed fetches are not cached.
type blobCache struct {
	data  sync.Map
	group singleflight.Group
}

// get returns the cached bytes for sha, calling fetch on a miss. shared
// reports whether the bytes came from the cache or another caller's fetch.
func (c *blobCache) get(sha string, fetch func() ([]byte, error)) (raw []byte, shared bool, err error) {
	if sha == "" {
		raw, err = fetch()
		return raw, false, err
	}
	if v, ok := c.data.Load(sha); ok {
		return v.([]byte), true, nil
	}
	v, err, shared := c.group.Do(sha, func() (any, error) {
		raw, err := fetch()
		if err != nil {
			return nil, err
		}
		c.data.Store(sha, raw)
		return raw, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), shared, nil
}
