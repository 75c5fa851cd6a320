package hwinfo

import "fmt"

// ReadingKind classifies a reading the way the producer tags it. The set is
// open-ended on the wire: tags newer than this decoder map to KindOther so a
// new hardware category degrades to a generic metric instead of breaking the
// whole snapshot.
type ReadingKind uint32

const (
	// KindNone marks an unused slot in the reading table. The builder skips
	// these; they never appear in a Snapshot.
	KindNone ReadingKind = iota
	KindTemp
	KindVolt
	KindFan
	KindCurrent
	KindPower
	KindClock
	KindUsage
	KindOther
)

// kindFromTag maps a raw wire tag to a ReadingKind, folding anything beyond
// the known range into KindOther.
func kindFromTag(tag uint32) ReadingKind {
	if tag > uint32(KindOther) {
		return KindOther
	}
	return ReadingKind(tag)
}

func (k ReadingKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTemp:
		return "temperature"
	case KindVolt:
		return "voltage"
	case KindFan:
		return "fan"
	case KindCurrent:
		return "current"
	case KindPower:
		return "power"
	case KindClock:
		return "clock"
	case KindUsage:
		return "usage"
	case KindOther:
		return "other"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}
