// Package poller drives the shared-memory decode on a fixed interval and
// publishes the resulting snapshots. It owns the connection state machine:
// Disconnected while the producer's segment is absent, Connected while
// decoding ticks are running. All decode-stage failures are classified here;
// nothing below the poller ever terminates the process.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
	"github.com/warbou/hwinfo-oled-monitor/internal/shmem"
)

// State is the poller's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// errSegmentGone marks a read failure on an established region: the mapping
// went away and the poller should go back to Disconnected and re-open.
var errSegmentGone = errors.New("poller: segment vanished")

// Config holds the poller's knobs. Zero values pick the defaults used by the
// monitor command.
type Config struct {
	// SegmentName defaults to the producer's well-known name.
	SegmentName string
	// Interval is the decode tick period (default 500ms). Ticks never
	// overlap: the next tick waits for the previous decode to finish.
	Interval time.Duration
	// Backoff is the retry delay while Disconnected (default 3s).
	Backoff time.Duration
	// Open is the segment opener, a seam for tests. Defaults to shmem.Open.
	Open shmem.Opener
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Poller re-reads the segment on a fixed interval and retains the last good
// snapshot across transient decode failures.
type Poller struct {
	cfg   Config
	state atomic.Int32

	mu        sync.RWMutex
	current   *hwinfo.Snapshot
	filter    map[uint32]bool
	callbacks []func(*hwinfo.Snapshot)
}

// New builds a Poller. It does nothing until Run is called.
func New(cfg Config) *Poller {
	if cfg.SegmentName == "" {
		cfg.SegmentName = hwinfo.SegmentName
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 3 * time.Second
	}
	if cfg.Open == nil {
		cfg.Open = shmem.Open
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Poller{cfg: cfg}
}

// Snapshot returns the most recent successfully decoded snapshot, or nil
// before the first successful tick. Never blocks on the poll loop.
func (p *Poller) Snapshot() *hwinfo.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// State reports the current connection state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// OnUpdate registers a callback fired once per successful decode, after the
// new snapshot is published. Callbacks run on the poll goroutine and must
// not block; a slow callback delays the next tick.
func (p *Poller) OnUpdate(fn func(*hwinfo.Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

// SetFilter restricts published snapshots to the given reading IDs. An empty
// list publishes everything decoded.
func (p *Poller) SetFilter(ids []uint32) {
	var allow map[uint32]bool
	if len(ids) > 0 {
		allow = make(map[uint32]bool, len(ids))
		for _, id := range ids {
			allow[id] = true
		}
	}
	p.mu.Lock()
	p.filter = allow
	p.mu.Unlock()
}

// Run polls until ctx is cancelled or a fatal condition surfaces.
// AccessDenied on open and UnsupportedVersion from the decoder end the
// session with an error; everything else is retried.
func (p *Poller) Run(ctx context.Context) error {
	defer p.state.Store(int32(StateDisconnected))

	for {
		region, err := p.connect(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		p.state.Store(int32(StateConnected))
		p.cfg.Logger.Info("segment connected",
			"segment", p.cfg.SegmentName, "size", region.Size())

		err = p.pollLoop(ctx, region)
		region.Close()
		p.state.Store(int32(StateDisconnected))

		switch {
		case err == nil:
			return nil // shutdown
		case errors.Is(err, errSegmentGone):
			p.cfg.Logger.Warn("segment vanished, reconnecting", "error", err)
		default:
			return err
		}
	}
}

// connect retries Open with the configured backoff until a region is mapped,
// the context ends, or the error is fatal.
func (p *Poller) connect(ctx context.Context) (shmem.Region, error) {
	for {
		region, err := p.cfg.Open(p.cfg.SegmentName)
		if err == nil {
			return region, nil
		}
		if errors.Is(err, shmem.ErrAccessDenied) {
			return nil, fmt.Errorf("opening segment: %w", err)
		}
		if !errors.Is(err, shmem.ErrNotFound) {
			// Unclassified open failures (including unsupported platforms)
			// will not get better with retries.
			return nil, fmt.Errorf("opening segment: %w", err)
		}

		p.cfg.Logger.Debug("segment not found, retrying",
			"segment", p.cfg.SegmentName, "backoff", p.cfg.Backoff)
		select {
		case <-ctx.Done():
			return nil, context.Canceled
		case <-time.After(p.cfg.Backoff):
		}
	}
}

// pollLoop ticks until cancellation (nil), segment loss (errSegmentGone), or
// a fatal decode condition. The first tick runs immediately on connect.
func (p *Poller) pollLoop(ctx context.Context, region shmem.Region) error {
	if err := p.tick(region); err != nil {
		return err
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.tick(region); err != nil {
				return err
			}
		}
	}
}

// tick runs one read-decode-publish cycle. A malformed-but-present segment
// (producer mid-write) is logged at low severity and the previous snapshot
// stays published; it is not a reason to reconnect.
func (p *Poller) tick(region shmem.Region) error {
	data, err := region.Read()
	if err != nil {
		return fmt.Errorf("%w: %w", errSegmentGone, err)
	}

	snap, err := hwinfo.Decode(data)
	switch {
	case err == nil:
		p.publish(snap)
		return nil
	case errors.Is(err, hwinfo.ErrUnsupportedVersion):
		return fmt.Errorf("decoding segment: %w", err)
	default:
		p.cfg.Logger.Debug("transient decode failure, keeping last snapshot",
			"error", err)
		return nil
	}
}

func (p *Poller) publish(snap *hwinfo.Snapshot) {
	p.mu.Lock()
	published := snap.Filtered(p.filter)
	p.current = published
	callbacks := p.callbacks
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(published)
	}
}
