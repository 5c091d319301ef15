package raspberry

import (
	"fmt"

	"github.com/warthog618/gpio"
)

// OutputBus is a set of output pins addressed by index.
// The pins are accessed through the memory mapped registers (/dev/gpiomem),
// toggling them is fast enough for the display timing.
type OutputBus struct {
	pins []*gpio.Pin
}

// OpenOutputBus maps the gpio memory and sets the BCM pins as output (low).
func OpenOutputBus(bcm ...int) (*OutputBus, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("can't map gpio memory: %w", err)
	}

	b := &OutputBus{}
	for _, p := range bcm {
		pin := gpio.NewPin(p)
		pin.Output()
		pin.Low()
		b.pins = append(b.pins, pin)
	}
	return b, nil
}

// Set drives line high or low.
func (b *OutputBus) Set(line int, high bool) error {
	if line < 0 || line >= len(b.pins) {
		return fmt.Errorf("line %d: %w", line, ErrInvalidParam)
	}

	if high {
		b.pins[line].High()
	} else {
		b.pins[line].Low()
	}
	return nil
}

// Close sets all pins low and unmaps the gpio memory.
func (b *OutputBus) Close() error {
	for _, p := range b.pins {
		p.Low()
	}
	return gpio.Close()
}
