// Package raspberry is the watcher for gpio ports
package raspberry

import (
	"fmt"

	"auriol/pkg/port"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

// consumer is the label of the requested lines.
const consumer = "auriol"

// eventBuffer is the number of edges buffered between the gpiod handler and the reader of C.
// One transmission has 39 edges.
const eventBuffer = 256

var ErrInvalidParam = fmt.Errorf("invalid parameters")

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
}

// Line represents a single requested input line.
type Line struct {
	gpiodLine *gpiod.Line
	// C receives the rising edges of the line
	C chan port.Event
	// done is closed by Close, the handler drops events afterwards
	done chan struct{}
}

// Open opens a GPIO character device, e.g. gpiochip0.
func Open(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, err
	}
	return &Chip{gpiodChip: c}, nil
}

// WatchRisingEdges requests control of a single line on a chip.
//
//	If granted, control is maintained until the Line is closed.
//	Rising edges are sent with the kernel timestamp to channel C.
//	The edges aren't debounced, the gap between edges carries the data.
func (c *Chip) WatchRisingEdges(offset int, bias string) (*Line, error) {
	line := &Line{
		C:    make(chan port.Event, eventBuffer),
		done: make(chan struct{}),
	}

	handler := func(evt gpiod.LineEvent) {
		if evt.Type != gpiod.LineEventRisingEdge {
			return
		}

		select {
		case line.C <- port.Event{Type: port.RisingEdge, Timestamp: evt.Timestamp}:
		case <-line.done:
		default:
			// a lost edge breaks the frame, the decoder resynchronizes on the next sync
			debug.ErrorLog.Println("edge buffer overflow, event dropped")
		}
	}

	opts := []gpiod.LineReqOption{gpiod.WithEventHandler(handler), gpiod.WithRisingEdge, gpiod.AsInput}

	switch bias {
	case "pullup":
		opts = append(opts, gpiod.WithPullUp)
	case "pulldown":
		opts = append(opts, gpiod.WithPullDown)
	case "none", "":
	default:
		return nil, ErrInvalidParam
	}

	var err error
	if line.gpiodLine, err = c.gpiodChip.RequestLine(offset, opts...); err != nil {
		return nil, err
	}

	return line, nil
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be closed
// independently.
func (c *Chip) Close() error {
	return c.gpiodChip.Close()
}

// Close releases all resources held by the requested line.
//
// Note that this includes waiting for any running event handler to return.
// As a consequence the Close must not be called from the context of the event
// handler - the Close should be called from a different goroutine.
func (l *Line) Close() error {
	close(l.done)
	if err := l.gpiodLine.Close(); err != nil {
		return err
	}
	close(l.C)
	return nil
}
