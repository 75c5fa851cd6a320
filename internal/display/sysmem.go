package display

import "github.com/shirou/gopsutil/v4/mem"

// osMemPercent reads system memory utilization from the OS. The producer
// exports various memory readings, but percent-used from the OS is the one
// number that is always present and always means the same thing.
func osMemPercent() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.UsedPercent
}
