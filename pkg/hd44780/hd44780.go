// Package hd44780 drives a 16x2 character display with a HD44780 controller in 4 bit mode.
package hd44780

import (
	"fmt"
	"sync"
	"time"
)

// Line numbers of the Bus.
const (
	D4 = iota
	D5
	D6
	D7
	EN
	RS
)

// Lines is the number of lines driving the display.
const Lines = 6

// register select
const (
	command = 0
	data    = 1
)

// commands
const (
	clearDisplay   = 0x01
	entryIncrement = 0x06
	displayOn      = 0x0c
	functionSet    = 0x28 // two lines, 4 bit
	fourBitInit    = 0x32
	line1          = 0x80
	line2          = 0xc0
)

// DegreeSign is the degree sign of the display's character ROM.
const DegreeSign = "\xdf"

// Bus sets the level of the output lines D4..D7, EN and RS.
type Bus interface {
	Set(line int, high bool) error
}

// Display is a HD44780 display connected to a Bus.
type Display struct {
	bus Bus
	// sleep waits for the controller, it's replaced in tests.
	sleep func(time.Duration)
	// m serializes the access to the bus.
	m sync.Mutex
}

// New returns a display connected to bus. Call Init before printing.
func New(bus Bus) *Display {
	return &Display{bus: bus, sleep: time.Sleep}
}

// Init switches the controller to 4 bit mode, two lines and clears the display.
func (d *Display) Init() error {
	d.m.Lock()
	defer d.m.Unlock()

	steps := []func() error{
		func() error { return d.nibble(command, 0x3) },
		func() error { d.sleep(4100 * time.Microsecond); return d.nibble(command, 0x3) },
		func() error { d.sleep(100 * time.Microsecond); return d.byte(command, fourBitInit) },
		func() error { return d.byte(command, entryIncrement) },
		func() error { return d.byte(command, displayOn) },
		func() error { return d.byte(command, functionSet) },
		d.clear,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("init display: %w", err)
		}
	}
	return nil
}

// Print clears the display and writes msg. A newline continues on the second line.
func (d *Display) Print(msg string) error {
	d.m.Lock()
	defer d.m.Unlock()

	if err := d.clear(); err != nil {
		return err
	}
	if err := d.byte(command, line1); err != nil {
		return err
	}

	for i := 0; i < len(msg); i++ {
		var err error
		if msg[i] == '\n' {
			err = d.byte(command, line2)
		} else {
			err = d.byte(data, msg[i])
		}

		if err != nil {
			return fmt.Errorf("print %q: %w", msg, err)
		}
	}
	return nil
}

func (d *Display) clear() error {
	if err := d.byte(command, clearDisplay); err != nil {
		return err
	}
	d.sleep(1520 * time.Microsecond)
	return nil
}

// byte sends the high nibble first.
func (d *Display) byte(mode int, b byte) error {
	if err := d.nibble(mode, b>>4); err != nil {
		return err
	}
	return d.nibble(mode, b&0xf)
}

func (d *Display) nibble(mode int, n byte) error {
	if err := d.bus.Set(RS, mode == data); err != nil {
		return err
	}

	for l := D4; l <= EN; l++ {
		if err := d.bus.Set(l, false); err != nil {
			return err
		}
	}

	for i := 0; i < 4; i++ {
		if err := d.bus.Set(D4+i, n>>i&1 == 1); err != nil {
			return err
		}
	}

	return d.pulse()
}

// pulse commits the nibble to the controller.
func (d *Display) pulse() error {
	if err := d.bus.Set(EN, true); err != nil {
		return err
	}
	d.sleep(20 * time.Microsecond)

	if err := d.bus.Set(EN, false); err != nil {
		return err
	}
	d.sleep(37 * time.Microsecond)
	return nil
}
