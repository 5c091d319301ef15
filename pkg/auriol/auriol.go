// Package auriol decodes the frames of the Auriol remote temperature and humidity sensor (IAN 331821_1907).
//
// The 37 received bits are padded with three zero bits to a 40 bit packet:
//
//	bit 39-32  sensor id, random after battery change
//	bit 31     battery, strong(1), weak(0)
//	bit 30     scheduled(0) or manual(1) transmission
//	bit 29-28  channel, 0x0 = 1, 0x1 = 2, 0x2 = 3
//	bit 27-16  temperature, 12 bit two's complement in 1/10 °C
//	bit 15-12  unknown, consistently 0xf
//	bit 11-4   humidity in %
//	bit 3-0    trailer, only bit 3 is received
package auriol

import (
	"fmt"

	"auriol/pkg/frame"
)

const (
	// padding is the number of zero bits appended to a frame.
	padding = 3

	// ExpectedTrailer is the trailer of an undisturbed transmission.
	ExpectedTrailer = 0xf
	// trailerReceived masks the trailer bits that are part of the frame.
	trailerReceived = 0x8
	// unknownFill is the value of the unknown field used by Encode.
	unknownFill = 0xf
)

// Packet is the 40 bit representation of a frame.
// It is also the raw value published to the message broker.
type Packet uint64

// NewPacket pads the frame to a 40 bit packet.
func NewPacket(f frame.Frame) Packet {
	return Packet(uint64(f)<<padding) & 0xff_ffff_ffff
}

// Frame returns the received bits of the packet.
func (p Packet) Frame() frame.Frame {
	return frame.Frame(p >> padding)
}

func (p Packet) field(shift, width uint) uint64 {
	return uint64(p) >> shift & (1<<width - 1)
}

// SensorID returns bits 32..39.
func (p Packet) SensorID() uint8 { return uint8(p.field(32, 8)) }

// Battery returns bit 31.
func (p Packet) Battery() bool { return p.field(31, 1) == 1 }

// Manual returns bit 30.
func (p Packet) Manual() bool { return p.field(30, 1) == 1 }

// Channel returns the wire channel (bits 28..29), 0 is channel 1.
func (p Packet) Channel() uint8 { return uint8(p.field(28, 2)) }

// Temperature returns bits 16..27 sign extended, in 1/10 °C.
func (p Packet) Temperature() int {
	// shift the 12 bit sign into bit 15 and back, the arithmetic shift replicates the sign
	return int(int16(uint16(p.field(16, 12))<<4) >> 4)
}

// Unknown returns bits 12..15.
func (p Packet) Unknown() uint8 { return uint8(p.field(12, 4)) }

// Humidity returns bits 4..11.
func (p Packet) Humidity() uint8 { return uint8(p.field(4, 8)) }

// Trailer returns bits 0..3.
func (p Packet) Trailer() uint8 { return uint8(p.field(0, 4)) }

// Reading returns the decoded fields of the packet.
func (p Packet) Reading() Reading {
	return Reading{
		SensorID:    p.SensorID(),
		BatteryOK:   p.Battery(),
		ManualMode:  p.Manual(),
		Channel:     int(p.Channel()) + 1,
		Temperature: p.Temperature(),
		Humidity:    p.Humidity(),
		Trailer:     p.Trailer(),
	}
}

// Reading is a decoded transmission of the sensor.
// Values are passed through unchecked, e.g. channel 4 or humidity above 100%.
type Reading struct {
	SensorID   uint8 `json:"sensorId"`
	BatteryOK  bool  `json:"batteryOk"`
	ManualMode bool  `json:"manualMode"`
	// Channel is the channel selected on the sensor (1..3).
	Channel int `json:"channel"`
	// Temperature in 1/10 °C.
	Temperature int   `json:"temperature"`
	Humidity    uint8 `json:"humidity"`
	// Trailer holds bits 0..3 of the packet. Only bit 3 is received, the other
	// bits are zero padding, so a healthy frame decodes to 0x8 and not to
	// ExpectedTrailer. Use TrailerOK to check it.
	Trailer uint8 `json:"trailer"`
}

// Decode converts a validated frame into a reading.
func Decode(f frame.Frame) Reading {
	return NewPacket(f).Reading()
}

// Encode converts a reading back into the frame the sensor would send.
// Trailer bits that are not received are dropped.
func Encode(r Reading) frame.Frame {
	var p uint64

	p |= uint64(r.SensorID) << 32
	if r.BatteryOK {
		p |= 1 << 31
	}
	if r.ManualMode {
		p |= 1 << 30
	}
	p |= uint64(r.Channel-1) & 0x3 << 28
	p |= uint64(r.Temperature) & 0xfff << 16
	p |= unknownFill << 12
	p |= uint64(r.Humidity) << 4
	p |= uint64(r.Trailer) & trailerReceived

	return Packet(p).Frame()
}

// Celsius returns the temperature in °C.
func (r Reading) Celsius() float64 {
	return float64(r.Temperature) / 10
}

// TrailerOK reports whether the received trailer bits match ExpectedTrailer.
// A mismatch is a hint for a disturbed transmission, not a decoding error.
func (r Reading) TrailerOK() bool {
	return r.Trailer&trailerReceived == ExpectedTrailer&trailerReceived
}

// String formats the reading like id=4a,pow=1,man=0,ch=1,temp=23.8,rh=56
func (r Reading) String() string {
	return fmt.Sprintf("id=%02x,pow=%d,man=%d,ch=%d,temp=%.1f,rh=%d",
		r.SensorID, b2i(r.BatteryOK), b2i(r.ManualMode), r.Channel, r.Celsius(), r.Humidity)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
