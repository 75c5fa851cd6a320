package hwinfo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// SensorGroup is one logical hardware component (a CPU, a GPU, a drive...)
// that owns one or more readings. ID is stable for the life of the producer
// process; Instance disambiguates identical devices.
type SensorGroup struct {
	ID       uint32
	Instance uint32
	Name     string
}

// Reading is one metric: a kind tag, labels, and the current value together
// with the min/max/avg the producer has observed.
type Reading struct {
	ID       uint32
	SensorID uint32 // owning SensorGroup.ID
	Kind     ReadingKind
	Label    string
	Unit     string
	Value    float64
	Min      float64
	Max      float64
	Avg      float64
	// Raw is the little-endian 64-bit word Value was decoded from, untouched
	// by any float conversion.
	Raw uint64

	// sensorIndex is the raw table position of the owning sensor, used
	// during the build pass to resolve SensorID.
	sensorIndex uint32
}

// decodeSensor decodes one sensor record. rec must be one full stride as
// sliced by SegmentHeader.sensorAt.
func decodeSensor(layout recordLayout, rec []byte) (SensorGroup, error) {
	if len(rec) < layout.sensorMinSize {
		return SensorGroup{}, fmt.Errorf("%w: sensor record truncated to %d bytes",
			ErrMalformedRecord, len(rec))
	}

	orig := cString(rec[layout.sensorNameOrig : layout.sensorNameOrig+layout.sensorNameLen])
	user := cString(rec[layout.sensorNameUser : layout.sensorNameUser+layout.sensorNameLen])
	name := user
	if name == "" {
		name = orig
	}

	return SensorGroup{
		ID:       binary.LittleEndian.Uint32(rec[layout.sensorID:]),
		Instance: binary.LittleEndian.Uint32(rec[layout.sensorInstance:]),
		Name:     name,
	}, nil
}

// decodeReading decodes one reading record. Unknown kind tags fold into
// KindOther rather than failing: the producer grows the tag set with new
// hardware generations and a single new metric type must not abort the
// snapshot.
func decodeReading(layout recordLayout, rec []byte) (Reading, error) {
	if len(rec) < layout.readingMinSize {
		return Reading{}, fmt.Errorf("%w: reading record truncated to %d bytes",
			ErrMalformedRecord, len(rec))
	}

	orig := cString(rec[layout.readingNameOrig : layout.readingNameOrig+layout.readingNameLen])
	user := cString(rec[layout.readingNameUser : layout.readingNameUser+layout.readingNameLen])
	label := user
	if label == "" {
		label = orig
	}

	raw := binary.LittleEndian.Uint64(rec[layout.readingValue:])

	return Reading{
		ID:          binary.LittleEndian.Uint32(rec[layout.readingID:]),
		Kind:        kindFromTag(binary.LittleEndian.Uint32(rec[layout.readingKind:])),
		Label:       label,
		Unit:        cString(rec[layout.readingUnit : layout.readingUnit+layout.readingUnitLen]),
		Value:       math.Float64frombits(raw),
		Min:         float64At(rec, layout.readingMin),
		Max:         float64At(rec, layout.readingMax),
		Avg:         float64At(rec, layout.readingAvg),
		Raw:         raw,
		sensorIndex: binary.LittleEndian.Uint32(rec[layout.readingSensor:]),
	}, nil
}

// float64At reads an unaligned little-endian double at off.
func float64At(b []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
}

// cString decodes a fixed-width, null-padded byte field. A field with no
// terminator (producer mid-write, or a label that fills the buffer exactly)
// is taken at full width rather than rejected.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
