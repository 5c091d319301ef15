// Package receiver decodes the rising edges of the 433 MHz receiver output into sensor readings.
//
//	edges -> gaps -> symbols (pulse) -> frames (frame) -> readings (auriol)
//
// All decoding happens in Feed, one event at a time. The Decoder runs Feed in a single
// go routine, so the decoding state is never shared.
package receiver

import (
	"time"

	"auriol/pkg/auriol"
	"auriol/pkg/frame"
	"auriol/pkg/metrics"
	"auriol/pkg/port"
	"auriol/pkg/pulse"

	"github.com/womat/debug"
)

// DefaultTimeout is the maximum time between two transmissions.
const DefaultTimeout = 80 * time.Second

// Message is a decoded transmission.
type Message struct {
	// Timestamp is the edge timestamp of the terminating sync.
	Timestamp time.Duration
	// Packet is the raw 40 bit packet.
	Packet auriol.Packet
	// Reading holds the decoded fields.
	Reading auriol.Reading
}

// Options configures a Decoder.
type Options struct {
	// Tolerance is the half width of the symbol windows, see pulse.New.
	Tolerance time.Duration
	// Timeout discards a frame in progress if no edge is received in time.
	// Zero uses DefaultTimeout.
	Timeout time.Duration
	// Holdoff returns the time to ignore edges after a reading.
	// Nil or a zero duration disables the hold-off.
	Holdoff func(auriol.Reading) time.Duration
}

// Stats contains the counters of the decoder.
type Stats struct {
	frame.Stats
	Edges   uint64 `json:"edges"`
	Ignored uint64 `json:"ignored"`
}

// Decoder represents the handler of the decoder.
type Decoder struct {
	classifier pulse.Classifier
	assembler  frame.Assembler
	timeout    time.Duration
	holdoff    func(auriol.Reading) time.Duration

	// lastTimestamp is the time of the last detected rising edge.
	lastTimestamp time.Duration
	// started is false until the first edge after a reset is received.
	started bool
	// suspendedUntil is the end of the current hold-off.
	suspendedUntil time.Duration

	edges   uint64
	ignored uint64

	// C is the channel to send the decoded messages
	C chan Message

	// rx is the channel to receive the line events
	rx <-chan port.Event
	// stats is the channel to request the decoder stats
	stats chan chan Stats
	// quit is the channel to stop the Decoder
	quit chan struct{}
	// done signals that run is stopped
	done chan struct{}
}

// NewDecoder initials a decoder without starting it. Use Feed to decode events.
func NewDecoder(o Options) *Decoder {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}

	return &Decoder{
		classifier: pulse.New(o.Tolerance),
		timeout:    o.Timeout,
		holdoff:    o.Holdoff,
	}
}

// New initials a new Decoder and starts decoding the events of channel c.
// Decoded messages are sent to channel C.
func New(c <-chan port.Event, o Options) *Decoder {
	d := NewDecoder(o)
	d.C = make(chan Message, 8)
	d.rx = c
	d.stats = make(chan chan Stats)
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	go d.run()
	return d
}

// Close stops decoding and closes channel C.
func (d *Decoder) Close() error {
	close(d.quit)

	// wait until run() is terminated
	<-d.done
	return nil
}

// Stats returns the counters of the decoder.
func (d *Decoder) Stats() Stats {
	// decoder without go routine, see NewDecoder
	if d.stats == nil {
		return d.counters()
	}

	r := make(chan Stats)

	select {
	case d.stats <- r:
		return <-r
	case <-d.done:
		return Stats{}
	}
}

// run receives events and sends decoded messages to C.
func (d *Decoder) run() {
	defer close(d.done)
	defer close(d.C)

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	lastEdge := time.Now()

	for {
		select {
		case <-d.quit:
			return
		case r := <-d.stats:
			r <- d.counters()
		case <-timer.C:
			// the timer isn't restarted on each edge, check the real idle time
			if idle := time.Since(lastEdge); idle < d.timeout {
				timer.Reset(d.timeout - idle)
				continue
			}

			debug.TraceLog.Printf("no edge within %v", d.timeout)
			d.Timeout()
			timer.Reset(d.timeout)
		case evt, open := <-d.rx:
			if !open {
				debug.InfoLog.Print("edge source closed, stop decoding")
				return
			}

			lastEdge = time.Now()
			msg, ok := d.Feed(evt)
			if !ok {
				continue
			}

			select {
			case d.C <- msg:
			case <-d.quit:
				return
			}
		}
	}
}

// Feed decodes one edge event. Events must be fed in the order of their timestamps.
// Feed returns true if the event completes a valid frame.
func (d *Decoder) Feed(evt port.Event) (Message, bool) {
	if evt.Type != port.RisingEdge {
		return Message{}, false
	}

	d.edges++

	ignored := evt.Timestamp < d.suspendedUntil
	metrics.RecordEdge(ignored)
	if ignored {
		d.ignored++
		return Message{}, false
	}

	gap := evt.Timestamp - d.lastTimestamp
	first := !d.started
	d.lastTimestamp = evt.Timestamp
	d.started = true

	// without a previous edge there is no gap, the edge only opens the next one
	if first {
		return Message{}, false
	}

	if gap < 0 || gap > d.timeout {
		d.assembler.Reset()
		return Message{}, false
	}

	f, ok := d.assembler.Push(d.classifier.Classify(gap))
	if !ok {
		return Message{}, false
	}

	p := auriol.NewPacket(f)
	msg := Message{Timestamp: evt.Timestamp, Packet: p, Reading: p.Reading()}
	debug.DebugLog.Printf("frame %s: %v", f.Bits(), msg.Reading)

	if d.holdoff != nil {
		if h := d.holdoff(msg.Reading); h > 0 {
			debug.DebugLog.Printf("ignore edges for %v", h)
			d.suspendedUntil = evt.Timestamp + h
			d.started = false
		}
	}

	return msg, true
}

// Timeout discards the frame in progress, the next edge starts a new gap.
// It is called if no edge is received within the inter-message timeout.
func (d *Decoder) Timeout() {
	d.assembler.Reset()
	d.started = false
}

func (d *Decoder) counters() Stats {
	return Stats{Stats: d.assembler.Stats(), Edges: d.edges, Ignored: d.ignored}
}
