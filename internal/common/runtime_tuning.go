package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by host size. The engine keeps every pool's records in memory, so
// the memory limit is the knob that matters; GOGC stays near the default.
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1.5 * 1024 * 1024 * 1024

	LargeServerGOGC     = 400
	LargeServerMemLimit = 6 * 1024 * 1024 * 1024
)

func detectServerProfile() (gogc int, memLimit int64) {
	if runtime.NumCPU() <= 2 {
		return SmallServerGOGC, int64(SmallServerMemLimit)
	}
	return LargeServerGOGC, int64(LargeServerMemLimit)
}

// TuneRuntime applies the profile's GOGC and memory limit unless GOGC or GOMEMLIMIT
// are set in the environment.
func TuneRuntime() {
	gogc, memLimit := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("gogc", gogc).
		Int64("mem_limit_bytes", debug.SetMemoryLimit(-1)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] settings applied")
}
