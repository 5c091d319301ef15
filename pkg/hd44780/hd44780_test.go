package hd44780

import (
	"errors"
	"testing"
	"time"
)

// fakeBus records the bytes latched by the controller on each falling EN edge.
type fakeBus struct {
	level [Lines]bool
	// nibbles received since the last complete byte
	high   *byte
	writes []write
	fail   error
}

type write struct {
	rs bool
	b  byte
}

func (f *fakeBus) Set(line int, high bool) error {
	if f.fail != nil {
		return f.fail
	}

	if line == EN && f.level[EN] && !high {
		var n byte
		for i := 0; i < 4; i++ {
			if f.level[D4+i] {
				n |= 1 << i
			}
		}

		if f.high == nil {
			f.high = &n
		} else {
			f.writes = append(f.writes, write{rs: f.level[RS], b: *f.high<<4 | n})
			f.high = nil
		}
	}

	f.level[line] = high
	return nil
}

func newTestDisplay(bus Bus) *Display {
	d := New(bus)
	d.sleep = func(time.Duration) {}
	return d
}

func TestPrint(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDisplay(bus)

	if err := d.Print("#1 Temp: 1.5" + DegreeSign + "C\nHi"); err != nil {
		t.Fatalf("Print() unexpected error %v", err)
	}

	var text []byte
	commands := []byte{}
	for _, w := range bus.writes {
		if w.rs {
			text = append(text, w.b)
		} else {
			commands = append(commands, w.b)
		}
	}

	if got, want := string(text), "#1 Temp: 1.5\xdfCHi"; got != want {
		t.Errorf("display text %q, expected %q", got, want)
	}

	want := []byte{clearDisplay, line1, line2}
	if len(commands) != len(want) {
		t.Fatalf("commands %x, expected %x", commands, want)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Errorf("command %d = %#x, expected %#x", i, commands[i], want[i])
		}
	}
}

func TestInit(t *testing.T) {
	bus := &fakeBus{}
	d := newTestDisplay(bus)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() unexpected error %v", err)
	}

	// the two single init nibbles 0x3 pair up to 0x33
	want := []byte{0x33, fourBitInit, entryIncrement, displayOn, functionSet, clearDisplay}
	if len(bus.writes) != len(want) {
		t.Fatalf("got %d writes %v, expected %d", len(bus.writes), bus.writes, len(want))
	}
	for i, w := range bus.writes {
		if w.rs || w.b != want[i] {
			t.Errorf("write %d = %+v, expected command %#x", i, w, want[i])
		}
	}
}

func TestBusError(t *testing.T) {
	errBus := errors.New("line busy")
	d := newTestDisplay(&fakeBus{fail: errBus})

	if err := d.Init(); !errors.Is(err, errBus) {
		t.Errorf("Init() error = %v, expected %v", err, errBus)
	}
	if err := d.Print("x"); !errors.Is(err, errBus) {
		t.Errorf("Print() error = %v, expected %v", err, errBus)
	}
}
