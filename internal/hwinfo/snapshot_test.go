package hwinfo

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestDecodeEndToEnd(t *testing.T) {
	snap, err := Decode(twoSensorSegment())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(snap.Groups) != 2 {
		t.Fatalf("groups: got %d, want 2", len(snap.Groups))
	}
	if len(snap.Readings) != 3 {
		t.Fatalf("readings: got %d, want 3", len(snap.Readings))
	}
	if snap.UpdateCounter != 1700000001 {
		t.Errorf("UpdateCounter: got %d", snap.UpdateCounter)
	}
	if snap.Taken.IsZero() {
		t.Error("Taken not stamped")
	}

	cpu, ok := snap.Group(100)
	if !ok || cpu.Name != "CPU" {
		t.Errorf("group 100: got %+v, ok=%v", cpu, ok)
	}
	gpu, ok := snap.Group(200)
	if !ok || gpu.Name != "GPU" {
		t.Errorf("group 200: got %+v, ok=%v", gpu, ok)
	}

	tests := []struct {
		id       uint32
		sensorID uint32
		kind     ReadingKind
		label    string
		unit     string
		value    float64
	}{
		{1, 100, KindTemp, "CPU Package", "°C", 45.0},
		{2, 100, KindUsage, "Total CPU Usage", "%", 25.3},
		{3, 200, KindTemp, "GPU Temperature", "°C", 60.0},
	}
	for _, tt := range tests {
		r, ok := snap.Reading(tt.id)
		if !ok {
			t.Errorf("reading %d missing", tt.id)
			continue
		}
		if r.SensorID != tt.sensorID {
			t.Errorf("reading %d: SensorID got %d, want %d", tt.id, r.SensorID, tt.sensorID)
		}
		if r.Kind != tt.kind {
			t.Errorf("reading %d: Kind got %v, want %v", tt.id, r.Kind, tt.kind)
		}
		if r.Label != tt.label || r.Unit != tt.unit {
			t.Errorf("reading %d: got %q/%q, want %q/%q", tt.id, r.Label, r.Unit, tt.label, tt.unit)
		}
		if r.Value != tt.value {
			t.Errorf("reading %d: Value got %v, want %v", tt.id, r.Value, tt.value)
		}
		if r.Raw != math.Float64bits(tt.value) {
			t.Errorf("reading %d: Raw got %#x", tt.id, r.Raw)
		}
	}

	// No ID collisions within either table.
	seen := make(map[uint32]bool)
	for _, g := range snap.Groups {
		if seen[g.ID] {
			t.Errorf("duplicate group id %d", g.ID)
		}
		seen[g.ID] = true
	}
	seen = make(map[uint32]bool)
	for _, r := range snap.Readings {
		if seen[r.ID] {
			t.Errorf("duplicate reading id %d", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDecodeIdempotent(t *testing.T) {
	seg := twoSensorSegment()
	a, err := Decode(seg)
	if err != nil {
		t.Fatalf("first decode: %v", err)
	}
	b, err := Decode(seg)
	if err != nil {
		t.Fatalf("second decode: %v", err)
	}
	if !reflect.DeepEqual(a.Groups, b.Groups) {
		t.Error("groups differ between decodes of the same bytes")
	}
	if !reflect.DeepEqual(a.Readings, b.Readings) {
		t.Error("readings differ between decodes of the same bytes")
	}
}

func TestDecodeSkipsUnusedSlots(t *testing.T) {
	snap, err := Decode(buildSegment(1,
		[]testSensor{{id: 1, nameUser: "CPU"}},
		[]testReading{
			{kind: 0, sensorIndex: 0, id: 10}, // unused slot
			{kind: 1, sensorIndex: 0, id: 11, nameOrig: "Core", unit: "°C", value: 50},
			{kind: 0, sensorIndex: 0, id: 12},
		}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snap.Readings) != 1 || snap.Readings[0].ID != 11 {
		t.Errorf("got %d readings %+v, want only id 11", len(snap.Readings), snap.Readings)
	}
}

func TestDecodeInconsistentSensorIndex(t *testing.T) {
	_, err := Decode(buildSegment(1,
		[]testSensor{{id: 1, nameUser: "CPU"}},
		[]testReading{{kind: 1, sensorIndex: 5, id: 10, nameOrig: "Core", value: 50}}))
	if !errors.Is(err, ErrInconsistent) {
		t.Errorf("got %v, want ErrInconsistent", err)
	}
}

func TestDecodeDuplicateIDsKeepFirst(t *testing.T) {
	snap, err := Decode(buildSegment(1,
		[]testSensor{
			{id: 1, nameUser: "First"},
			{id: 1, nameUser: "Second"},
		},
		[]testReading{
			{kind: 1, sensorIndex: 0, id: 10, nameOrig: "A", value: 1},
			{kind: 1, sensorIndex: 1, id: 10, nameOrig: "B", value: 2},
		}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(snap.Groups) != 1 || snap.Groups[0].Name != "First" {
		t.Errorf("groups: got %+v, want first occurrence only", snap.Groups)
	}
	if len(snap.Readings) != 1 || snap.Readings[0].Label != "A" {
		t.Errorf("readings: got %+v, want first occurrence only", snap.Readings)
	}
}

// Duplicate sensors are deduped, but readings still resolve their owner by
// raw table position.
func TestDecodeSensorIndexUsesRawTable(t *testing.T) {
	snap, err := Decode(buildSegment(1,
		[]testSensor{
			{id: 7, nameUser: "Dup"},
			{id: 7, nameUser: "Dup again"},
			{id: 9, nameUser: "Board"},
		},
		[]testReading{{kind: 1, sensorIndex: 2, id: 30, nameOrig: "VRM", value: 61}}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, ok := snap.Reading(30)
	if !ok || r.SensorID != 9 {
		t.Errorf("reading 30: got SensorID=%d ok=%v, want 9", r.SensorID, ok)
	}
}

func TestDecodeCorruptionNeverPanics(t *testing.T) {
	seg := twoSensorSegment()

	// Every truncation length: Decode must return an error or a snapshot,
	// never read past the slice.
	for n := 0; n <= len(seg); n++ {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("panic at truncation %d: %v", n, r)
				}
			}()
			_, _ = Decode(seg[:n])
		}()
	}

	// Single-word corruption of every header field.
	for off := 0; off < headerSize; off += 4 {
		mut := make([]byte, len(seg))
		copy(mut, seg)
		binary.LittleEndian.PutUint32(mut[off:], 0xFFFFFFFF)
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("panic with corrupt word at %d: %v", off, r)
				}
			}()
			_, _ = Decode(mut)
		}()
	}
}

func TestSnapshotValue(t *testing.T) {
	snap, err := Decode(twoSensorSegment())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := snap.Value(1); got != 45.0 {
		t.Errorf("Value(1): got %v", got)
	}
	if got := snap.Value(9999); got != 0 {
		t.Errorf("Value(absent): got %v, want 0", got)
	}
}

func TestSnapshotFiltered(t *testing.T) {
	snap, err := Decode(twoSensorSegment())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := snap.Filtered(map[uint32]bool{3: true})
	if len(got.Readings) != 1 || got.Readings[0].ID != 3 {
		t.Fatalf("readings: got %+v, want only id 3", got.Readings)
	}
	// Group 100 has no surviving reading and is dropped.
	if len(got.Groups) != 1 || got.Groups[0].ID != 200 {
		t.Errorf("groups: got %+v, want only id 200", got.Groups)
	}
	if got.UpdateCounter != snap.UpdateCounter {
		t.Error("UpdateCounter not carried over")
	}

	if same := snap.Filtered(nil); same != snap {
		t.Error("empty allow-list should return the snapshot unchanged")
	}
}
