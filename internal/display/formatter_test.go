package display

import (
	"testing"
	"time"

	"github.com/warbou/hwinfo-oled-monitor/internal/config"
	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
)

var testRoles = config.SensorRoles{
	CPUTemp: 1,
	CPULoad: 2,
	GPUTemp: 3,
	GPULoad: 4,
}

// testSnapshot returns a snapshot with the role readings pre-resolved.
func testSnapshot(values map[uint32]float64) *hwinfo.Snapshot {
	snap := &hwinfo.Snapshot{}
	for id, v := range values {
		snap.Readings = append(snap.Readings, hwinfo.Reading{ID: id, Value: v})
	}
	return snap
}

// testFormatter pins the clock and RAM percentage so frames are exact.
func testFormatter(roles config.SensorRoles, ramPct float64) *Formatter {
	f := New(roles)
	f.memPercent = func() float64 { return ramPct }
	f.now = func() time.Time {
		return time.Date(2024, time.March, 4, 13, 45, 7, 0, time.UTC) // a Monday
	}
	return f
}

func TestFrameNoData(t *testing.T) {
	f := testFormatter(testRoles, 0)
	got := f.Frame(nil, 17)
	if got.Line1 != "HWiNFO Monitor #17" {
		t.Errorf("Line1: got %q", got.Line1)
	}
	if got.Line2 != "No Data - 13:45:07" {
		t.Errorf("Line2: got %q", got.Line2)
	}
}

func TestFrameModes(t *testing.T) {
	snap := testSnapshot(map[uint32]float64{
		1: 45.6, // cpu temp
		2: 30.0, // cpu load
		3: 60.2, // gpu temp
		4: 50.0, // gpu load
	})

	tests := []struct {
		mode  int
		line1 string
		line2 string
	}{
		{0, "CPU: 30%", "GPU: 50%"},
		{1, "CPU: 45°C", "Load: 30%"},
		{2, "GPU: 60°C", "Load: 50%"},
		{3, "RAM: 41%", "Memory Load"},
		{4, "CPU:45°", "GPU:60°"},
		{5, "Mon 13:45:07", "RAM: 41%"},
	}
	for _, tt := range tests {
		// Fresh formatter per mode so load windows stay below minSamples and
		// the raw values pass through.
		f := testFormatter(testRoles, 41.0)
		got := f.Frame(snap, tt.mode)
		if got.Line1 != tt.line1 || got.Line2 != tt.line2 {
			t.Errorf("mode %d (%s): got %q/%q, want %q/%q",
				tt.mode, ModeNames[tt.mode], got.Line1, got.Line2, tt.line1, tt.line2)
		}
	}
}

func TestFrameGPUMissing(t *testing.T) {
	f := testFormatter(testRoles, 41.0)
	snap := testSnapshot(map[uint32]float64{1: 45, 2: 30})

	got := f.Frame(snap, 2)
	if got.Line1 != "GPU: No Data" {
		t.Errorf("Line1: got %q", got.Line1)
	}
}

func TestFrameTempsPartial(t *testing.T) {
	f := testFormatter(testRoles, 41.0)
	snap := testSnapshot(map[uint32]float64{1: 45})

	got := f.Frame(snap, 4)
	if got.Line1 != "CPU:45°" || got.Line2 != "RAM: 41%" {
		t.Errorf("got %q/%q", got.Line1, got.Line2)
	}

	got = f.Frame(testSnapshot(nil), 4)
	if got.Line1 != "No Temp Data" {
		t.Errorf("Line1: got %q", got.Line1)
	}
}

func TestFrameMemoryFallbacks(t *testing.T) {
	roles := testRoles
	roles.RAMTemp = 5
	roles.GPUMemory = 6
	roles.RAMUsage = 7

	tests := []struct {
		name   string
		values map[uint32]float64
		line2  string
	}{
		{"ram temp wins", map[uint32]float64{5: 52, 6: 80, 7: 9000}, "Temp: 52°C"},
		{"gpu mem next", map[uint32]float64{6: 80, 7: 9000}, "GPU Mem: 80%"},
		{"ram usage gb", map[uint32]float64{7: 9216}, "Used: 9.0 GB"},
		{"ram usage mb", map[uint32]float64{7: 700}, "Used: 700 MB"},
		{"nothing assigned", nil, "Memory Load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFormatter(roles, 41.0)
			got := f.Frame(testSnapshot(tt.values), 3)
			if got.Line1 != "RAM: 41%" {
				t.Errorf("Line1: got %q", got.Line1)
			}
			if got.Line2 != tt.line2 {
				t.Errorf("Line2: got %q, want %q", got.Line2, tt.line2)
			}
		})
	}
}

func TestFrameInfoFallbacks(t *testing.T) {
	roles := testRoles
	roles.NVMeTemp = 8
	roles.MBTemp = 9

	f := testFormatter(roles, 41.0)
	got := f.Frame(testSnapshot(map[uint32]float64{8: 41, 9: 38}), 5)
	if got.Line2 != "SSD: 41°C" {
		t.Errorf("nvme present: Line2 got %q", got.Line2)
	}

	got = f.Frame(testSnapshot(map[uint32]float64{9: 38}), 5)
	if got.Line2 != "MB: 38°C" {
		t.Errorf("mb only: Line2 got %q", got.Line2)
	}

	got = f.Frame(testSnapshot(nil), 5)
	if got.Line2 != "RAM: 41%" {
		t.Errorf("neither: Line2 got %q", got.Line2)
	}
}

func TestLoadSmootherWindow(t *testing.T) {
	s := newLoadSmoother(false)

	// Below minSamples the raw value passes through.
	if got := s.push(50); got != 50 {
		t.Errorf("sample 1: got %d", got)
	}
	if got := s.push(60); got != 60 {
		t.Errorf("sample 2: got %d", got)
	}

	// Third sample: weighted average (50*1 + 60*2 + 70*3) / 6 = 63.
	if got := s.push(70); got != 63 {
		t.Errorf("sample 3: got %d, want 63", got)
	}

	// Window caps at smoothWindow samples.
	s.push(70)
	s.push(70)
	s.push(70)
	if got := len(s.window); got != smoothWindow {
		t.Errorf("window length: got %d, want %d", got, smoothWindow)
	}
}

func TestLoadSmootherZeroBypass(t *testing.T) {
	s := newLoadSmoother(false)
	s.push(80)
	s.push(80)
	s.push(80)
	if got := s.push(0); got != 0 {
		t.Errorf("zero sample: got %d, want 0 with no decay", got)
	}
	if got := s.push(-5); got != 0 {
		t.Errorf("negative sample: got %d, want 0", got)
	}
}

func TestLoadSmootherDropReset(t *testing.T) {
	gpu := newLoadSmoother(true)
	for i := 0; i < smoothWindow; i++ {
		gpu.push(90)
	}

	// A sharp drop clears the window: the new sample passes through raw
	// instead of decaying from 90.
	if got := gpu.push(10); got != 10 {
		t.Errorf("after drop: got %d, want 10", got)
	}
	if got := len(gpu.window); got != 1 {
		t.Errorf("window after reset: got %d samples", got)
	}

	// The plain smoother keeps its tail on the same input.
	cpu := newLoadSmoother(false)
	for i := 0; i < smoothWindow; i++ {
		cpu.push(90)
	}
	if got := cpu.push(10); got == 10 {
		t.Error("non-resetting smoother should decay, not jump")
	}
}
