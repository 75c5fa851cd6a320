package hwinfo

import "errors"

// Decode failures are classified with sentinel errors so the poller can
// decide per tick whether to retry, reconnect, or give up.
var (
	// ErrMalformedHeader means the leading header failed validation:
	// wrong magic, truncated, or table extents outside the segment.
	ErrMalformedHeader = errors.New("hwinfo: malformed header")

	// ErrMalformedRecord means a fixed-stride record could not be decoded
	// (truncated against its declared stride).
	ErrMalformedRecord = errors.New("hwinfo: malformed record")

	// ErrInconsistent means the decoded tables fail referential integrity,
	// e.g. a reading points at a sensor index past the sensor table.
	ErrInconsistent = errors.New("hwinfo: inconsistent tables")

	// ErrUnsupportedVersion means the header declares a layout version this
	// decoder does not know. Retrying will not help; the decoder needs an
	// update for the new layout.
	ErrUnsupportedVersion = errors.New("hwinfo: unsupported layout version")
)
