// Package frame accumulates classified symbols into validated frames.
//
// A frame is the sequence of data bits between two sync symbols. Only a sync
// arriving after exactly Length bits releases a frame, every other
// disturbance silently restarts the accumulation.
package frame

import (
	"errors"
	"fmt"

	"auriol/pkg/metrics"
	"auriol/pkg/pulse"

	"github.com/womat/debug"
)

// Length is the number of data bits of a valid frame.
const Length = 37

// mask covers the bits of a valid frame.
const mask = 1<<Length - 1

// Discard reasons. They are recorded in Stats and never returned to callers.
var (
	ErrMalformedGap = errors.New("gap outside of all symbol windows")
	ErrFrameLength  = errors.New("sync received at wrong bit count")
	ErrStaleFrame   = errors.New("stale frame discarded")
)

// Frame is a validated frame of exactly Length bits.
// The first received bit is the most significant bit (bit 36).
type Frame uint64

// Bits returns the frame as a MSB first string of '0' and '1'.
func (f Frame) Bits() string {
	return fmt.Sprintf("%037b", uint64(f)&mask)
}

// Stats counts the outcome of the accumulation.
type Stats struct {
	Frames           uint64 `json:"frames"`
	MalformedGaps    uint64 `json:"malformedGaps"`
	LengthMismatches uint64 `json:"lengthMismatches"`
	StaleFrames      uint64 `json:"staleFrames"`
}

// Assembler contains the state of the frame accumulation.
// It is not safe for concurrent use, events must be serialized by the caller.
type Assembler struct {
	// rxRegister holds the received bits, the last received bit is bit 0.
	rxRegister uint64
	// rxBit is the number of bits in rxRegister.
	rxBit int

	stats Stats
}

// Push handles one classified symbol.
//
//	Zero, One:    append the bit
//	Sync:         release the frame if exactly Length bits are accumulated, then restart
//	Unclassified: restart
//
// Push returns true if a frame is released.
func (a *Assembler) Push(s pulse.Symbol) (Frame, bool) {
	switch s {
	case pulse.Zero:
		a.append(0)
	case pulse.One:
		a.append(1)
	case pulse.Sync:
		if a.rxBit == Length {
			f := Frame(a.rxRegister & mask)
			a.stats.Frames++
			metrics.RecordFrame()
			a.clear()
			return f, true
		}

		// a sync without preceding bits is the normal idle case, e.g. two consecutive syncs
		if a.rxBit > 0 {
			a.discard(ErrFrameLength)
		}
	default:
		a.discard(ErrMalformedGap)
	}

	return 0, false
}

// Reset discards the frame in progress.
// The caller uses Reset if no edge was received within the inter-message timeout.
func (a *Assembler) Reset() {
	a.discard(ErrStaleFrame)
}

// Len returns the number of bits accumulated so far.
func (a *Assembler) Len() int {
	return a.rxBit
}

// Stats returns the counters of the assembler.
func (a *Assembler) Stats() Stats {
	return a.stats
}

func (a *Assembler) append(bit uint64) {
	// more than Length bits can never become valid, keep counting but stop shifting
	// so the register can't overflow on an endless bit stream.
	if a.rxBit < 64 {
		a.rxRegister = a.rxRegister<<1 | bit
	}
	a.rxBit++
}

// discard drops the frame in progress and counts the reason.
// Restarting an empty accumulator is not counted.
func (a *Assembler) discard(reason error) {
	if a.rxBit == 0 {
		return
	}

	switch {
	case errors.Is(reason, ErrMalformedGap):
		a.stats.MalformedGaps++
		metrics.RecordDiscard(metrics.ReasonMalformedGap)
	case errors.Is(reason, ErrFrameLength):
		a.stats.LengthMismatches++
		metrics.RecordDiscard(metrics.ReasonLengthMismatch)
	case errors.Is(reason, ErrStaleFrame):
		a.stats.StaleFrames++
		metrics.RecordDiscard(metrics.ReasonStaleFrame)
	}

	debug.TraceLog.Printf("discard %v bits: %v", a.rxBit, reason)
	a.clear()
}

func (a *Assembler) clear() {
	a.rxRegister = 0
	a.rxBit = 0
}
