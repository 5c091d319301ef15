package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"auriol/pkg/auriol"
	"auriol/pkg/hd44780"
	"auriol/pkg/metrics"
	"auriol/pkg/mqtt"
	"auriol/pkg/receiver"

	"github.com/google/uuid"
	"github.com/womat/debug"
)

// awaitingReading is displayed until the first reading is received.
const awaitingReading = "Awaiting Reading"

// record is the last reading of a channel.
type record struct {
	auriol.Reading
	Celsius float64   `json:"celsius"`
	Packet  uint64    `json:"packet"`
	Time    time.Time `json:"time"`
	// NextExpected is the time of the next transmission, zero for an invalid channel.
	NextExpected time.Time `json:"nextExpected"`
}

// measurement is the json payload published to the broker.
type measurement struct {
	ID uuid.UUID `json:"id"`
	auriol.Reading
	Celsius float64   `json:"celsius"`
	Time    time.Time `json:"time"`
}

// service waits in an endless loop for decoded messages.
// It saves the reading, shows it on the display and sends it to the mqtt broker.
func (app *App) service() {
	for msg := range app.decoder.C {
		app.handle(msg, time.Now())
	}
	debug.InfoLog.Print("decoder stopped")
}

// handle processes one decoded message received at t.
func (app *App) handle(msg receiver.Message, t time.Time) {
	r := msg.Reading

	if !r.TrailerOK() {
		if app.config.Decoder.DiscardBadTrailer {
			debug.DebugLog.Printf("discard reading with trailer %#x: %v", r.Trailer, r)
			return
		}
		debug.DebugLog.Printf("unexpected trailer %#x", r.Trailer)
	}

	debug.InfoLog.Printf("%d: %v", t.Unix(), r)
	metrics.RecordReading(r.Channel)

	rec := record{Reading: r, Celsius: r.Celsius(), Packet: uint64(msg.Packet), Time: t}
	if i, err := auriol.Interval(r.Channel); err == nil {
		rec.NextExpected = t.Add(i)
	} else {
		debug.DebugLog.Printf("channel %d: %v", r.Channel, err)
	}

	app.readings.Lock()
	app.readings.data[r.Channel] = rec
	app.readings.Unlock()

	if app.display != nil {
		if err := app.display.Print(displayText(r)); err != nil {
			debug.ErrorLog.Printf("display: %v", err)
		}
	}

	if topic := app.config.MQTT.RawTopic; topic != "" {
		app.sendMQTT(topic, rawPayload(t, msg.Packet))
	}

	if topic := app.config.MQTT.Topic; topic != "" {
		b, err := json.Marshal(measurement{ID: uuid.New(), Reading: r, Celsius: r.Celsius(), Time: t})
		if err != nil {
			debug.ErrorLog.Printf("marshal reading: %v", err)
			return
		}
		app.sendMQTT(topic+"/"+strconv.Itoa(r.Channel), b)
	}
}

// sendMQTT sends the payload to the mqtt broker.
func (app *App) sendMQTT(topic string, payload []byte) {
	go func(m mqtt.Message) {
		debug.TraceLog.Printf("prepare mqtt message %v %s", m.Topic, m.Payload)
		app.mqtt.C <- m
	}(mqtt.Message{
		Qos:      app.config.MQTT.Qos,
		Retained: app.config.MQTT.Retained,
		Topic:    topic,
		Payload:  payload,
	})
}

// rawPayload formats the packet as <unix time>: <packet>
func rawPayload(t time.Time, p auriol.Packet) []byte {
	return []byte(fmt.Sprintf("%d: %d", t.Unix(), uint64(p)))
}

// displayText formats the reading for a 16x2 display.
//
//	#1 Temp: 23.8°C
//	Humidity: 56%
func displayText(r auriol.Reading) string {
	return fmt.Sprintf("#%d Temp: %.1f%sC\nHumidity: %d%%", r.Channel, r.Celsius(), hd44780.DegreeSign, r.Humidity)
}
