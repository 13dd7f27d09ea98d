package importers

import "runtime"

// MemoryPressure is the host-reported memory state, queried on fixed
// processed-count thresholds during an import.
type MemoryPressure int

const (
	PressureNormal MemoryPressure = iota
	PressureWarning
	PressureCritical
)

// PressureFunc is supplied by the host environment. A critical reading
// aborts the run; a warning is logged and the run continues.
type PressureFunc func() MemoryPressure

// RuntimePressure builds a PressureFunc from the Go heap size against a
// byte limit: warning above 80% of the limit, critical above the limit.
// Hosts with their own signal can supply any PressureFunc instead.
func RuntimePressure(limitBytes uint64) PressureFunc {
	return func() MemoryPressure {
		if limitBytes == 0 {
			return PressureNormal
		}
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		switch {
		case stats.HeapAlloc >= limitBytes:
			return PressureCritical
		case stats.HeapAlloc >= limitBytes/5*4:
			return PressureWarning
		default:
			return PressureNormal
		}
	}
}
