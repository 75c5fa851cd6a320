//go:build !windows

package shmem

import "fmt"

// Open always fails on platforms without named shared memory. The error is
// deliberately not ErrNotFound: retrying will never succeed here, and the
// poller treats unclassified open errors as fatal.
func Open(name string) (Region, error) {
	return nil, fmt.Errorf("shmem: open %q: named shared memory is not available on this platform", name)
}
