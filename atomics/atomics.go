// Package atomics pins down the 64-bit atomic storage the search tree
// builds its shared counters on.
//
// The struct-based stdlib atomic types guarantee 64-bit alignment on every
// supported platform, so the aliases below are the whole integer contract.
// Targets without native 64-bit atomic instructions go through the
// runtime's fallback paths, which preserves correctness at a throughput
// cost.
package atomics

import (
	"math"
	"sync/atomic"
)

type (
	Uint64 = atomic.Uint64
	Int64  = atomic.Int64
	Bool   = atomic.Bool
)

// Float64 is an atomic float64 stored as its IEEE-754 bit pattern in a
// 64-bit cell. The zero value holds 0.0 and is ready to use.
type Float64 struct {
	bits atomic.Uint64
}

func (f *Float64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *Float64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Add accumulates delta into the cell and returns the new value.
// Concurrent adders contend only on the swap: a failed CAS rereads and
// retries with the fresh value, so no increment is ever lost.
func (f *Float64) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		v := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return v
		}
	}
}
