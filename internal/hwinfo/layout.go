// Package hwinfo decodes the binary sensor tables that HWiNFO64 publishes in
// its shared-memory segment. The producer writes a C-packed, little-endian
// layout with no synchronization offered to readers, so every offset is
// range-checked before use and any structurally invalid state is reported as
// an error for that read, never best-effort guessed.
//
// Layout per reverse-engineered format: a fixed header followed by two
// fixed-stride tables, "sensors" (logical device groupings) and "readings"
// (individual metrics). Record strides come from the header, which lets the
// producer append fields to records without breaking older readers.
package hwinfo

// Magic is the signature in the first four bytes of the segment
// ("HWiS" when read as little-endian bytes).
const Magic uint32 = 0x53695748

// SegmentName is the well-known name of the producer's shared-memory
// segment.
const SegmentName = `Global\HWiNFO_SENS_SM2`

// headerSize is the packed size of the segment header, identical across the
// supported layout versions.
const headerSize = 44

// recordLayout fixes the byte offsets and widths of the two record types for
// one major layout version. All offsets are relative to the record start;
// none of the float fields are naturally aligned, so everything is decoded
// byte-wise at these positions.
type recordLayout struct {
	// sensor record
	sensorMinSize  int
	sensorID       int
	sensorInstance int
	sensorNameOrig int
	sensorNameUser int
	sensorNameLen  int

	// reading record
	readingMinSize  int
	readingKind     int
	readingSensor   int
	readingID       int
	readingNameOrig int
	readingNameUser int
	readingNameLen  int
	readingUnit     int
	readingUnitLen  int
	readingValue    int
	readingMin      int
	readingMax      int
	readingAvg      int
}

var layoutV1 = recordLayout{
	sensorMinSize:  264,
	sensorID:       0,
	sensorInstance: 4,
	sensorNameOrig: 8,
	sensorNameUser: 136,
	sensorNameLen:  128,

	readingMinSize:  316,
	readingKind:     0,
	readingSensor:   4,
	readingID:       8,
	readingNameOrig: 12,
	readingNameUser: 140,
	readingNameLen:  128,
	readingUnit:     268,
	readingUnitLen:  16,
	readingValue:    284,
	readingMin:      292,
	readingMax:      300,
	readingAvg:      308,
}

// Version 2 kept every record field in place; only the header revision field
// changed meaning. Declared separately so a future drift edits one table.
var layoutV2 = layoutV1

// layoutFor selects the record layout for a header's major version. Unknown
// versions return ok=false; the decoder fails closed rather than guessing
// offsets into foreign memory.
func layoutFor(version uint32) (recordLayout, bool) {
	switch version {
	case 1:
		return layoutV1, true
	case 2:
		return layoutV2, true
	}
	return recordLayout{}, false
}
