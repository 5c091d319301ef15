package auriol

import (
	"errors"
	"time"
)

// ErrInvalidChannel is returned for channels outside 1..3.
var ErrInvalidChannel = errors.New("invalid channel")

// Interval returns the time between two transmissions of a sensor on the channel.
//
//	channel 1 = every 59 s
//	channel 2 = every 69 s
//	channel 3 = every 79 s
func Interval(channel int) (time.Duration, error) {
	if channel < 1 || channel > 3 {
		return 0, ErrInvalidChannel
	}

	return time.Duration(49+10*channel) * time.Second, nil
}
