// Package pulse classifies the gap between two rising edges of the
// on-off keyed receiver output into protocol symbols.
//
// The sensor encodes a bit in the distance between two rising edges:
//
//	bit 0 = 1.5 ms
//	bit 1 = 2.5 ms
//	sync  = 4.5 ms (end of message)
//
// Adjacent symbol centers are 1 ms apart, so a tolerance of up to 0.5 ms
// keeps the windows disjoint.
package pulse

import (
	"time"
)

// Symbol is the meaning of one gap.
type Symbol int

const (
	// Unclassified is a gap that matches no symbol window.
	Unclassified Symbol = iota
	// Zero is a data bit 0.
	Zero
	// One is a data bit 1.
	One
	// Sync terminates a message.
	Sync
)

const (
	// ZeroWidth is the nominal gap of a 0 bit.
	ZeroWidth = 1500 * time.Microsecond
	// OneWidth is the nominal gap of a 1 bit.
	OneWidth = 2500 * time.Microsecond
	// SyncWidth is the nominal gap of the sync symbol.
	SyncWidth = 4500 * time.Microsecond

	// DefaultTolerance is half the distance between adjacent symbol centers.
	DefaultTolerance = 500 * time.Microsecond
)

// String returns the symbol name.
func (s Symbol) String() string {
	switch s {
	case Zero:
		return "zero"
	case One:
		return "one"
	case Sync:
		return "sync"
	default:
		return "unclassified"
	}
}

// Window is the half-open interval [Center-Tolerance, Center+Tolerance).
type Window struct {
	Center    time.Duration
	Tolerance time.Duration
}

// Contains reports whether gap lies inside the window.
func (w Window) Contains(gap time.Duration) bool {
	return gap >= w.Center-w.Tolerance && gap < w.Center+w.Tolerance
}

// Classifier maps gaps to symbols. The zero value classifies every gap as Unclassified,
// use New to get a usable classifier.
type Classifier struct {
	zero, one, sync Window
}

// New returns a classifier with the nominal symbol widths and the given tolerance.
// A tolerance <= 0 or wider than DefaultTolerance is replaced by DefaultTolerance,
// wider windows would overlap.
func New(tolerance time.Duration) Classifier {
	if tolerance <= 0 || tolerance > DefaultTolerance {
		tolerance = DefaultTolerance
	}

	return Classifier{
		zero: Window{Center: ZeroWidth, Tolerance: tolerance},
		one:  Window{Center: OneWidth, Tolerance: tolerance},
		sync: Window{Center: SyncWidth, Tolerance: tolerance},
	}
}

// Classify returns the symbol of the gap between two rising edges.
func (c Classifier) Classify(gap time.Duration) Symbol {
	switch {
	case c.zero.Contains(gap):
		return Zero
	case c.one.Contains(gap):
		return One
	case c.sync.Contains(gap):
		return Sync
	default:
		return Unclassified
	}
}

// Tolerance returns the configured window half width.
func (c Classifier) Tolerance() time.Duration {
	return c.zero.Tolerance
}
