package hwinfo

import (
	"encoding/binary"
	"math"
)

// Synthetic segment builder for decoder tests. Lays out a version-1 segment
// exactly as the producer does: 44-byte header, sensor table, reading table,
// all packed little-endian.

type testSensor struct {
	id       uint32
	instance uint32
	nameOrig string
	nameUser string
}

type testReading struct {
	kind        uint32
	sensorIndex uint32
	id          uint32
	nameOrig    string
	nameUser    string
	unit        string
	value       float64
	min         float64
	max         float64
	avg         float64
}

const (
	testSensorStride  = 264
	testReadingStride = 316
)

func buildSegment(version uint32, sensors []testSensor, readings []testReading) []byte {
	sensorOff := headerSize
	readingOff := sensorOff + len(sensors)*testSensorStride
	total := readingOff + len(readings)*testReadingStride

	seg := make([]byte, total)
	le := binary.LittleEndian

	le.PutUint32(seg[0:], Magic)
	le.PutUint32(seg[4:], version)
	le.PutUint32(seg[8:], 0) // revision
	le.PutUint64(seg[12:], 1700000001)
	le.PutUint32(seg[20:], uint32(sensorOff))
	le.PutUint32(seg[24:], testSensorStride)
	le.PutUint32(seg[28:], uint32(len(sensors)))
	le.PutUint32(seg[32:], uint32(readingOff))
	le.PutUint32(seg[36:], testReadingStride)
	le.PutUint32(seg[40:], uint32(len(readings)))

	for i, s := range sensors {
		rec := seg[sensorOff+i*testSensorStride:]
		le.PutUint32(rec[0:], s.id)
		le.PutUint32(rec[4:], s.instance)
		putPadded(rec[8:136], s.nameOrig)
		putPadded(rec[136:264], s.nameUser)
	}

	for i, r := range readings {
		rec := seg[readingOff+i*testReadingStride:]
		le.PutUint32(rec[0:], r.kind)
		le.PutUint32(rec[4:], r.sensorIndex)
		le.PutUint32(rec[8:], r.id)
		putPadded(rec[12:140], r.nameOrig)
		putPadded(rec[140:268], r.nameUser)
		putPadded(rec[268:284], r.unit)
		le.PutUint64(rec[284:], math.Float64bits(r.value))
		le.PutUint64(rec[292:], math.Float64bits(r.min))
		le.PutUint64(rec[300:], math.Float64bits(r.max))
		le.PutUint64(rec[308:], math.Float64bits(r.avg))
	}

	return seg
}

// putPadded writes s into the fixed-width field, truncating if needed; the
// rest stays zero (null padding).
func putPadded(field []byte, s string) {
	copy(field, s)
}

// twoSensorSegment is the fixture most builder tests share: two groups, three
// live readings.
func twoSensorSegment() []byte {
	return buildSegment(1,
		[]testSensor{
			{id: 100, instance: 0, nameOrig: "CPU [#0]: Intel Core", nameUser: "CPU"},
			{id: 200, instance: 0, nameOrig: "GPU [#0]: NVIDIA", nameUser: "GPU"},
		},
		[]testReading{
			{kind: 1, sensorIndex: 0, id: 1, nameOrig: "CPU Package", unit: "°C", value: 45.0, min: 32.0, max: 71.5, avg: 44.2},
			{kind: 7, sensorIndex: 0, id: 2, nameOrig: "Total CPU Usage", unit: "%", value: 25.3, min: 0.4, max: 99.8, avg: 21.0},
			{kind: 1, sensorIndex: 1, id: 3, nameOrig: "GPU Temperature", unit: "°C", value: 60.0, min: 35.0, max: 83.0, avg: 58.7},
		})
}
