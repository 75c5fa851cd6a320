// Package display turns decoded snapshots into two-line OLED frames. It
// cycles through a fixed set of layout modes, one mode per update, and
// smooths the jumpy load percentages with a short weighted window.
package display

import (
	"fmt"
	"time"

	"github.com/warbou/hwinfo-oled-monitor/internal/config"
	"github.com/warbou/hwinfo-oled-monitor/internal/gamesense"
	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
)

// NumModes is how many layouts the formatter cycles through.
const NumModes = 6

// ModeNames label the layouts for log lines and the status API.
var ModeNames = [NumModes]string{
	"SysOverview", "CPU Detail", "GPU Detail", "Memory", "Temps", "Time/Info",
}

// Formatter renders frames from snapshots using the configured role
// assignments. Not safe for concurrent use; the monitor drives it from a
// single display loop.
type Formatter struct {
	roles   config.SensorRoles
	cpuLoad *loadSmoother
	gpuLoad *loadSmoother

	// memPercent supplies the RAM load shown in the memory layouts; the OS
	// is the authority here, not a producer reading. Swappable in tests.
	memPercent func() float64
	now        func() time.Time
}

// New builds a Formatter for the given role assignments.
func New(roles config.SensorRoles) *Formatter {
	return &Formatter{
		roles:   roles,
		cpuLoad: newLoadSmoother(false),
		// GPU load collapses instantly when a 3D workload stops; resetting
		// the window on a sharp drop keeps the display from showing a long
		// phantom tail.
		gpuLoad:    newLoadSmoother(true),
		memPercent: osMemPercent,
		now:        time.Now,
	}
}

// Frame renders the layout for this update count. A nil snapshot renders the
// "no data" frame so the display keeps cycling while the producer is away.
func (f *Formatter) Frame(snap *hwinfo.Snapshot, updateCount int) gamesense.Frame {
	now := f.now()
	if snap == nil {
		return gamesense.Frame{
			Line1: fmt.Sprintf("HWiNFO Monitor #%d", updateCount),
			Line2: "No Data - " + now.Format("15:04:05"),
		}
	}

	cpuTemp := intValue(snap, f.roles.CPUTemp)
	cpuLoad := f.cpuLoad.push(intValue(snap, f.roles.CPULoad))
	gpuTemp := intValue(snap, f.roles.GPUTemp)
	gpuLoad := f.gpuLoad.push(intValue(snap, f.roles.GPULoad))
	gpuMem := intValue(snap, f.roles.GPUMemory)
	ramTemp := intValue(snap, f.roles.RAMTemp)
	ramUsage := intValue(snap, f.roles.RAMUsage)
	mbTemp := intValue(snap, f.roles.MBTemp)
	nvmeTemp := intValue(snap, f.roles.NVMeTemp)
	ramLoad := int(f.memPercent())

	switch updateCount % NumModes {
	case 0:
		return gamesense.Frame{
			Line1: fmt.Sprintf("CPU: %d%%", cpuLoad),
			Line2: fmt.Sprintf("GPU: %d%%", gpuLoad),
		}

	case 1:
		return gamesense.Frame{
			Line1: fmt.Sprintf("CPU: %d°C", cpuTemp),
			Line2: fmt.Sprintf("Load: %d%%", cpuLoad),
		}

	case 2:
		if gpuTemp > 0 || gpuLoad > 0 {
			return gamesense.Frame{
				Line1: fmt.Sprintf("GPU: %d°C", gpuTemp),
				Line2: fmt.Sprintf("Load: %d%%", gpuLoad),
			}
		}
		return gamesense.Frame{Line1: "GPU: No Data", Line2: "Check HWiNFO sensors"}

	case 3:
		line1 := fmt.Sprintf("RAM: %d%%", ramLoad)
		switch {
		case ramTemp > 0:
			return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("Temp: %d°C", ramTemp)}
		case gpuMem > 0:
			return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("GPU Mem: %d%%", gpuMem)}
		case ramUsage > 0:
			if ramUsage >= 1024 {
				return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("Used: %.1f GB", float64(ramUsage)/1024)}
			}
			return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("Used: %d MB", ramUsage)}
		}
		return gamesense.Frame{Line1: line1, Line2: "Memory Load"}

	case 4:
		var temps []string
		if cpuTemp > 0 {
			temps = append(temps, fmt.Sprintf("CPU:%d°", cpuTemp))
		}
		if gpuTemp > 0 {
			temps = append(temps, fmt.Sprintf("GPU:%d°", gpuTemp))
		}
		switch len(temps) {
		case 0:
			return gamesense.Frame{Line1: "No Temp Data", Line2: fmt.Sprintf("RAM: %d%%", ramLoad)}
		case 1:
			return gamesense.Frame{Line1: temps[0], Line2: fmt.Sprintf("RAM: %d%%", ramLoad)}
		}
		return gamesense.Frame{Line1: temps[0], Line2: temps[1]}

	default:
		line1 := now.Format("Mon 15:04:05")
		switch {
		case nvmeTemp > 0:
			return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("SSD: %d°C", nvmeTemp)}
		case mbTemp > 0:
			return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("MB: %d°C", mbTemp)}
		}
		return gamesense.Frame{Line1: line1, Line2: fmt.Sprintf("RAM: %d%%", ramLoad)}
	}
}

// intValue looks up a role's current value, truncated the way the OLED
// renders it. Unassigned roles (id 0) and missing readings are 0.
func intValue(snap *hwinfo.Snapshot, id uint32) int {
	if id == 0 {
		return 0
	}
	return int(snap.Value(id))
}

// ── Load smoothing ───────────────────────────────────────────────────────

// smoothWindow values are averaged with weights 1..smoothWindow, newest
// heaviest; below minSamples the raw value passes through.
const (
	smoothWindow = 5
	minSamples   = 3
	dropReset    = 3
)

type loadSmoother struct {
	window      []int
	resetOnDrop bool
}

func newLoadSmoother(resetOnDrop bool) *loadSmoother {
	return &loadSmoother{resetOnDrop: resetOnDrop}
}

// push records a sample and returns the smoothed load. Zero samples bypass
// smoothing entirely: an unassigned or idle sensor should read 0, not decay.
func (s *loadSmoother) push(v int) int {
	if v <= 0 {
		return 0
	}

	if s.resetOnDrop && len(s.window) > 0 {
		sum := 0
		for _, w := range s.window {
			sum += w
		}
		if v < sum/len(s.window)-dropReset {
			s.window = s.window[:0]
		}
	}

	s.window = append(s.window, v)
	if len(s.window) > smoothWindow {
		s.window = s.window[len(s.window)-smoothWindow:]
	}
	if len(s.window) < minSamples {
		return v
	}

	weighted, total := 0, 0
	for i, w := range s.window {
		weight := i + 1
		weighted += w * weight
		total += weight
	}
	return weighted / total
}
