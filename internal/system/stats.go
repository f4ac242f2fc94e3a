package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of host resources for performance reports.
type HostStats struct {
	LogicalCPUs    int
	MemoryTotal    uint64
	MemoryUsedPct  float64
	GoHeapInUse    uint64
	GoroutineCount int
}

// Snapshot never fails; fields gopsutil cannot read stay zero.
func Snapshot() HostStats {
	var s HostStats
	if n, err := cpu.Counts(true); err == nil {
		s.LogicalCPUs = n
	} else {
		s.LogicalCPUs = runtime.NumCPU()
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryTotal = vm.Total
		s.MemoryUsedPct = vm.UsedPercent
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.GoHeapInUse = ms.HeapInuse
	s.GoroutineCount = runtime.NumGoroutine()
	return s
}

// DefaultWorkers returns the number of logical CPUs, at least 1.
func DefaultWorkers() int {
	if n := Snapshot().LogicalCPUs; n > 0 {
		return n
	}
	return 1
}
