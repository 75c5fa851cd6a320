// Package shmem opens named shared-memory segments read-only and exposes
// their contents as byte views. The producer owning a segment is a foreign
// process that offers readers no lock: a view may be mutated under us at any
// time, which is the decoder's problem (bounds checks) and not this
// package's. The real implementation lives in the windows build; everywhere
// else Open reports the platform as unsupported so the decoders and their
// tests stay portable.
package shmem

import "errors"

var (
	// ErrNotFound means no segment with that name exists right now. The
	// producer may simply not be running yet; callers are expected to retry.
	ErrNotFound = errors.New("shmem: segment not found")

	// ErrAccessDenied means the segment exists but this process may not map
	// it. Retrying without an environment change will not help.
	ErrAccessDenied = errors.New("shmem: access denied")

	// ErrClosed means the region was already closed.
	ErrClosed = errors.New("shmem: region closed")
)

// Region is a mapped, read-only view of one named segment.
type Region interface {
	// Read returns the current segment contents. The returned slice is only
	// valid until the next Read call: implementations reuse their buffer. A
	// Read error means the mapping itself failed, i.e. the segment is gone,
	// not that its contents are malformed.
	Read() ([]byte, error)

	// Size returns the mapped length in bytes.
	Size() int

	// Close releases the mapping. The Region must not be used afterwards.
	Close() error
}

// Opener opens a named segment. It is a seam for tests and for platforms
// without named shared memory; production code uses Open from this package.
type Opener func(name string) (Region, error)
