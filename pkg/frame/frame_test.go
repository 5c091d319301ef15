package frame

import (
	"testing"

	"auriol/pkg/metrics"
	"auriol/pkg/pulse"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// symbols converts a string of '0' and '1' into data symbols.
func symbols(bits string) []pulse.Symbol {
	s := make([]pulse.Symbol, 0, len(bits))
	for _, b := range bits {
		switch b {
		case '0':
			s = append(s, pulse.Zero)
		case '1':
			s = append(s, pulse.One)
		}
	}
	return s
}

// feed pushes all symbols and returns the released frames.
func feed(a *Assembler, s []pulse.Symbol) []Frame {
	var frames []Frame
	for _, sym := range s {
		if f, ok := a.Push(sym); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

const testBits = "0100101010000000111011101111001110001"

func TestPushReleasesFrame(t *testing.T) {
	var a Assembler

	frames := feed(&a, append(symbols(testBits), pulse.Sync))
	if len(frames) != 1 {
		t.Fatalf("got %d frames, expected 1", len(frames))
	}

	if got := frames[0].Bits(); got != testBits {
		t.Errorf("frame bits %s, expected %s", got, testBits)
	}
	if a.Len() != 0 {
		t.Errorf("assembler holds %d bits after release", a.Len())
	}
	if got := a.Stats().Frames; got != 1 {
		t.Errorf("Stats().Frames = %d", got)
	}
}

func TestPushWrongLength(t *testing.T) {
	tests := map[string]struct {
		bits    int
		release bool
	}{
		"empty": {0, false},
		"short": {36, false},
		"exact": {37, true},
		"long":  {38, false},
		"huge":  {100, false},
	}

	for name, tc := range tests {
		var a Assembler

		s := make([]pulse.Symbol, 0, tc.bits+1)
		for i := 0; i < tc.bits; i++ {
			s = append(s, pulse.One)
		}
		s = append(s, pulse.Sync)

		frames := feed(&a, s)
		if got := len(frames) == 1; got != tc.release {
			t.Errorf("%s: released %v, expected %v", name, got, tc.release)
		}
		if a.Len() != 0 {
			t.Errorf("%s: assembler holds %d bits after sync", name, a.Len())
		}
	}
}

func TestPushLongFrameStats(t *testing.T) {
	var a Assembler

	feed(&a, append(symbols(testBits+"1"), pulse.Sync))
	if got := a.Stats().LengthMismatches; got != 1 {
		t.Errorf("Stats().LengthMismatches = %d, expected 1", got)
	}

	// the sync of the rejected frame opens the next one
	frames := feed(&a, append(symbols(testBits), pulse.Sync))
	if len(frames) != 1 || frames[0].Bits() != testBits {
		t.Errorf("frame after rejected frame: %v", frames)
	}
}

func TestPushUnclassifiedRestarts(t *testing.T) {
	var a Assembler

	s := symbols(testBits[:20])
	s = append(s, pulse.Unclassified)
	s = append(s, symbols(testBits)...)
	s = append(s, pulse.Sync)

	frames := feed(&a, s)
	if len(frames) != 1 || frames[0].Bits() != testBits {
		t.Fatalf("got frames %v, expected one frame %s", frames, testBits)
	}
	if got := a.Stats().MalformedGaps; got != 1 {
		t.Errorf("Stats().MalformedGaps = %d, expected 1", got)
	}
}

func TestConsecutiveSyncs(t *testing.T) {
	var a Assembler

	frames := feed(&a, []pulse.Symbol{pulse.Sync, pulse.Sync, pulse.Sync})
	if len(frames) != 0 {
		t.Errorf("consecutive syncs released %d frames", len(frames))
	}
	if s := a.Stats(); s != (Stats{}) {
		t.Errorf("consecutive syncs changed stats: %+v", s)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	resets := map[string]func(a *Assembler){
		"unclassified": func(a *Assembler) { a.Push(pulse.Unclassified) },
		"timeout":      func(a *Assembler) { a.Reset() },
		"short sync":   func(a *Assembler) { a.Push(pulse.Sync) },
	}

	for _, depth := range []int{0, 1, 17, 36, 37, 38, 70} {
		for name, reset := range resets {
			var a Assembler
			for i := 0; i < depth; i++ {
				a.Push(pulse.Zero)
			}

			reset(&a)
			if name != "short sync" || depth != Length {
				reset(&a)
			}

			if a.Len() != 0 {
				t.Errorf("%s after %d bits: Len() = %d", name, depth, a.Len())
			}

			frames := feed(&a, append(symbols(testBits), pulse.Sync))
			if len(frames) != 1 || frames[0].Bits() != testBits {
				t.Errorf("%s after %d bits: no valid frame afterwards", name, depth)
			}
		}
	}
}

func TestResetStats(t *testing.T) {
	var a Assembler

	a.Reset()
	if got := a.Stats().StaleFrames; got != 0 {
		t.Errorf("reset of empty assembler counted: %d", got)
	}

	a.Push(pulse.One)
	a.Reset()
	if got := a.Stats().StaleFrames; got != 1 {
		t.Errorf("Stats().StaleFrames = %d, expected 1", got)
	}
}

func TestPushRecordsMetrics(t *testing.T) {
	discarded := func(reason string) float64 {
		return testutil.ToFloat64(metrics.Discarded.WithLabelValues(reason))
	}

	frames := testutil.ToFloat64(metrics.Frames)
	malformed := discarded(metrics.ReasonMalformedGap)
	length := discarded(metrics.ReasonLengthMismatch)
	stale := discarded(metrics.ReasonStaleFrame)

	var a Assembler
	feed(&a, append(symbols(testBits), pulse.Sync))
	feed(&a, []pulse.Symbol{pulse.One, pulse.Unclassified})
	feed(&a, []pulse.Symbol{pulse.One, pulse.Sync})
	feed(&a, []pulse.Symbol{pulse.One})
	a.Reset()

	if got := testutil.ToFloat64(metrics.Frames); got != frames+1 {
		t.Errorf("frames counter %v, expected %v", got, frames+1)
	}
	if got := discarded(metrics.ReasonMalformedGap); got != malformed+1 {
		t.Errorf("malformed gap counter %v, expected %v", got, malformed+1)
	}
	if got := discarded(metrics.ReasonLengthMismatch); got != length+1 {
		t.Errorf("length mismatch counter %v, expected %v", got, length+1)
	}
	if got := discarded(metrics.ReasonStaleFrame); got != stale+1 {
		t.Errorf("stale frame counter %v, expected %v", got, stale+1)
	}
}
