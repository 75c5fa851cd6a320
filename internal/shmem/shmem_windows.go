//go:build windows

package shmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMapping = kernel32.NewProc("OpenFileMappingW")
)

// winRegion maps a named file-mapping object read-only. Read copies the
// mapped bytes into a reusable buffer so decoders work on a view that stays
// put for the duration of one decode, even while the producer keeps writing
// to the mapping.
type winRegion struct {
	handle windows.Handle
	addr   uintptr
	size   int
	buf    []byte
}

// Open looks up the named segment and maps it read-only. The producer owns
// the mapping's size; we take whatever MapViewOfFile gives us and measure it
// with VirtualQuery.
func Open(name string) (Region, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("shmem: bad segment name %q: %w", name, err)
	}

	h, _, callErr := procOpenFileMapping.Call(
		uintptr(windows.FILE_MAP_READ),
		0, // no handle inheritance
		uintptr(unsafe.Pointer(name16)),
	)
	if h == 0 {
		return nil, classifyOpenError(name, callErr)
	}
	handle := windows.Handle(h)

	addr, err := windows.MapViewOfFile(handle, windows.FILE_MAP_READ, 0, 0, 0)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("shmem: map view of %q: %w", name, err)
	}

	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("shmem: query view of %q: %w", name, err)
	}

	return &winRegion{
		handle: handle,
		addr:   addr,
		size:   int(info.RegionSize),
	}, nil
}

func classifyOpenError(name string, callErr error) error {
	switch callErr {
	case windows.ERROR_FILE_NOT_FOUND:
		return fmt.Errorf("shmem: open %q: %w", name, ErrNotFound)
	case windows.ERROR_ACCESS_DENIED:
		return fmt.Errorf("shmem: open %q: %w", name, ErrAccessDenied)
	}
	return fmt.Errorf("shmem: open %q: %w", name, callErr)
}

func (r *winRegion) Read() ([]byte, error) {
	if r.addr == 0 {
		return nil, ErrClosed
	}
	if r.buf == nil {
		r.buf = make([]byte, r.size)
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(r.addr)), r.size)
	copy(r.buf, view)
	return r.buf, nil
}

func (r *winRegion) Size() int {
	return r.size
}

func (r *winRegion) Close() error {
	if r.addr == 0 {
		return nil
	}
	err := windows.UnmapViewOfFile(r.addr)
	if cerr := windows.CloseHandle(r.handle); err == nil {
		err = cerr
	}
	r.addr = 0
	r.buf = nil
	return err
}
