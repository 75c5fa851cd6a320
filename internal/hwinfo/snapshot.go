package hwinfo

import (
	"fmt"
	"time"
)

// Snapshot is a fully-decoded, point-in-time view of every sensor group and
// reading in the segment. It is immutable once built: the poller hands the
// same *Snapshot to every consumer and replaces it wholesale on the next
// successful decode.
type Snapshot struct {
	Groups   []SensorGroup
	Readings []Reading

	// UpdateCounter is the producer's LastUpdate field at decode time.
	UpdateCounter int64
	// Taken is the reader's wall-clock time of the decode.
	Taken time.Time
}

// Build decodes the full sensor table, then the full reading table, cross-
// referencing in one pass. data must be the same view the header was decoded
// from.
//
// Defensive cases, chosen to survive an uncooperating producer:
//   - duplicate stable IDs in either table keep the first occurrence;
//   - readings tagged KindNone are unused slots and are skipped;
//   - a reading whose sensor index is outside the sensor table fails the
//     whole build with ErrInconsistent (the tables are torn, nothing in them
//     can be trusted).
func Build(h SegmentHeader, data []byte) (*Snapshot, error) {
	if len(data) < h.SegmentSize {
		return nil, fmt.Errorf("%w: view shrank under the decoded header",
			ErrMalformedRecord)
	}

	// Raw table order matters: reading records reference sensors by table
	// position, not by ID.
	rawSensors := make([]SensorGroup, 0, h.SensorCount)
	for i := 0; i < int(h.SensorCount); i++ {
		g, err := decodeSensor(h.layout, h.sensorAt(data, i))
		if err != nil {
			return nil, fmt.Errorf("sensor %d: %w", i, err)
		}
		rawSensors = append(rawSensors, g)
	}

	groups := make([]SensorGroup, 0, len(rawSensors))
	seenGroup := make(map[uint32]bool, len(rawSensors))
	for _, g := range rawSensors {
		if seenGroup[g.ID] {
			continue
		}
		seenGroup[g.ID] = true
		groups = append(groups, g)
	}

	readings := make([]Reading, 0, h.ReadingCount)
	seenReading := make(map[uint32]bool, h.ReadingCount)
	for i := 0; i < int(h.ReadingCount); i++ {
		r, err := decodeReading(h.layout, h.readingAt(data, i))
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
		if r.Kind == KindNone {
			continue
		}
		if int(r.sensorIndex) >= len(rawSensors) {
			return nil, fmt.Errorf("%w: reading %d references sensor index %d of %d",
				ErrInconsistent, i, r.sensorIndex, len(rawSensors))
		}
		if seenReading[r.ID] {
			continue
		}
		seenReading[r.ID] = true
		r.SensorID = rawSensors[r.sensorIndex].ID
		readings = append(readings, r)
	}

	return &Snapshot{
		Groups:        groups,
		Readings:      readings,
		UpdateCounter: h.LastUpdate,
		Taken:         time.Now(),
	}, nil
}

// Decode is the whole-segment convenience path: header, then tables.
func Decode(data []byte) (*Snapshot, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return Build(h, data)
}

// Group returns the sensor group with the given stable ID.
func (s *Snapshot) Group(id uint32) (SensorGroup, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return SensorGroup{}, false
}

// Reading returns the reading with the given stable ID.
func (s *Snapshot) Reading(id uint32) (Reading, bool) {
	for _, r := range s.Readings {
		if r.ID == id {
			return r, true
		}
	}
	return Reading{}, false
}

// Value returns the current value of the reading with the given stable ID,
// or 0 when the ID is absent. Mirrors what display consumers want: a missing
// sensor renders as zero, not an error.
func (s *Snapshot) Value(id uint32) float64 {
	r, ok := s.Reading(id)
	if !ok {
		return 0
	}
	return r.Value
}

// Filtered returns a copy restricted to the allow-listed reading IDs, with
// sensor groups no surviving reading references dropped. A nil or empty
// allow-list returns the snapshot unchanged.
func (s *Snapshot) Filtered(allow map[uint32]bool) *Snapshot {
	if len(allow) == 0 {
		return s
	}

	readings := make([]Reading, 0, len(allow))
	usedGroup := make(map[uint32]bool)
	for _, r := range s.Readings {
		if !allow[r.ID] {
			continue
		}
		readings = append(readings, r)
		usedGroup[r.SensorID] = true
	}

	groups := make([]SensorGroup, 0, len(usedGroup))
	for _, g := range s.Groups {
		if usedGroup[g.ID] {
			groups = append(groups, g)
		}
	}

	return &Snapshot{
		Groups:        groups,
		Readings:      readings,
		UpdateCounter: s.UpdateCounter,
		Taken:         s.Taken,
	}
}
