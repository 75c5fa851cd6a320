package hwinfo

import (
	"encoding/binary"
	"fmt"
)

// SegmentHeader is the decoded fixed-size header at the start of the
// segment. Offsets and strides are byte positions relative to the segment
// start; both table extents have been validated against SegmentSize by the
// time DecodeHeader returns.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	Revision   uint32
	LastUpdate int64 // producer's update counter (unix seconds)

	SensorOffset uint32
	SensorStride uint32
	SensorCount  uint32

	ReadingOffset uint32
	ReadingStride uint32
	ReadingCount  uint32

	// SegmentSize is the length of the mapped view the header was decoded
	// from, not a field of the wire format.
	SegmentSize int

	layout recordLayout
}

// DecodeHeader interprets the leading header of a segment view and validates
// it against the view's length.
//
// Validation order is cheapest-first: magic, then version, then table
// extents. The extent check is what makes the record decoders safe against a
// producer that is mid-resize or publishing garbage counts: no table access
// ever happens beyond len(data).
func DecodeHeader(data []byte) (SegmentHeader, error) {
	if len(data) < headerSize {
		return SegmentHeader{}, fmt.Errorf("%w: segment is %d bytes, header needs %d",
			ErrMalformedHeader, len(data), headerSize)
	}

	h := SegmentHeader{
		Magic:         binary.LittleEndian.Uint32(data[0:4]),
		Version:       binary.LittleEndian.Uint32(data[4:8]),
		Revision:      binary.LittleEndian.Uint32(data[8:12]),
		LastUpdate:    int64(binary.LittleEndian.Uint64(data[12:20])),
		SensorOffset:  binary.LittleEndian.Uint32(data[20:24]),
		SensorStride:  binary.LittleEndian.Uint32(data[24:28]),
		SensorCount:   binary.LittleEndian.Uint32(data[28:32]),
		ReadingOffset: binary.LittleEndian.Uint32(data[32:36]),
		ReadingStride: binary.LittleEndian.Uint32(data[36:40]),
		ReadingCount:  binary.LittleEndian.Uint32(data[40:44]),
		SegmentSize:   len(data),
	}

	if h.Magic != Magic {
		return SegmentHeader{}, fmt.Errorf("%w: bad magic 0x%08X (want 0x%08X)",
			ErrMalformedHeader, h.Magic, Magic)
	}

	layout, ok := layoutFor(h.Version)
	if !ok {
		return SegmentHeader{}, fmt.Errorf("%w: version %d.%d",
			ErrUnsupportedVersion, h.Version, h.Revision)
	}
	h.layout = layout

	// A record may grow across producer releases, but never below the
	// version's known minimum: a smaller stride means the fixed field
	// offsets would read into the next record.
	if int(h.SensorStride) < layout.sensorMinSize {
		return SegmentHeader{}, fmt.Errorf("%w: sensor stride %d below minimum %d",
			ErrMalformedHeader, h.SensorStride, layout.sensorMinSize)
	}
	if int(h.ReadingStride) < layout.readingMinSize {
		return SegmentHeader{}, fmt.Errorf("%w: reading stride %d below minimum %d",
			ErrMalformedHeader, h.ReadingStride, layout.readingMinSize)
	}

	if err := checkExtent("sensor", h.SensorOffset, h.SensorStride, h.SensorCount, len(data)); err != nil {
		return SegmentHeader{}, err
	}
	if err := checkExtent("reading", h.ReadingOffset, h.ReadingStride, h.ReadingCount, len(data)); err != nil {
		return SegmentHeader{}, err
	}

	return h, nil
}

// checkExtent verifies offset + count*stride fits in the segment. The math
// runs in uint64 so a hostile or torn header cannot wrap 32-bit arithmetic
// into a "valid" extent.
func checkExtent(table string, offset, stride, count uint32, size int) error {
	if count == 0 {
		return nil
	}
	if uint64(offset) < headerSize {
		return fmt.Errorf("%w: %s table offset %d overlaps header",
			ErrMalformedHeader, table, offset)
	}
	end := uint64(offset) + uint64(stride)*uint64(count)
	if end > uint64(size) {
		return fmt.Errorf("%w: %s table ends at %d, segment is %d bytes",
			ErrMalformedHeader, table, end, size)
	}
	return nil
}

// sensorAt returns the byte range of sensor record i. The extent check in
// DecodeHeader guarantees the slice is in bounds.
func (h SegmentHeader) sensorAt(data []byte, i int) []byte {
	start := int(h.SensorOffset) + i*int(h.SensorStride)
	return data[start : start+int(h.SensorStride)]
}

// readingAt returns the byte range of reading record i.
func (h SegmentHeader) readingAt(data []byte, i int) []byte {
	start := int(h.ReadingOffset) + i*int(h.ReadingStride)
	return data[start : start+int(h.ReadingStride)]
}
