package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("can't write config file: %v", err)
	}
	return file
}

func TestLoadYAML(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "auriol.yaml", `
gpio:
  rx: 27
  bias: pullup
decoder:
  tolerance: 300
  timeout: 90
  holdoff: true
display:
  enabled: true
mqtt:
  connection: tcp://broker:1883
  qos: 1
debug:
  file: stdout
  flag: debug
`)

	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() unexpected error %v", err)
	}

	if c.Gpio.Rx != 27 || c.Gpio.Bias != "pullup" || c.Gpio.Chip != "gpiochip0" {
		t.Errorf("gpio config %+v", c.Gpio)
	}
	if c.Decoder.Tolerance != 300*time.Microsecond {
		t.Errorf("Decoder.Tolerance = %v", c.Decoder.Tolerance)
	}
	if c.Decoder.Timeout != 90*time.Second {
		t.Errorf("Decoder.Timeout = %v", c.Decoder.Timeout)
	}
	if !c.Decoder.Holdoff || c.Decoder.HoldoffGuard != 5*time.Second {
		t.Errorf("hold-off %v guard %v", c.Decoder.Holdoff, c.Decoder.HoldoffGuard)
	}
	if !c.Display.Enabled || c.Display.RS != 17 {
		t.Errorf("display config %+v", c.Display)
	}
	if c.MQTT.Connection != "tcp://broker:1883" || c.MQTT.Qos != 1 || c.MQTT.RawTopic != "weather/raw" {
		t.Errorf("mqtt config %+v", c.MQTT)
	}
	if c.Debug.File != os.Stdout {
		t.Errorf("Debug.File isn't stdout")
	}
}

func TestLoadTOML(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "auriol.toml", `
[gpio]
rx = 17

[decoder]
timeout = 60
discardbadtrailer = true

[mqtt]
topic = "home/garden"

[debug]
file = "stdout"
`)

	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() unexpected error %v", err)
	}

	if c.Gpio.Rx != 17 {
		t.Errorf("Gpio.Rx = %d", c.Gpio.Rx)
	}
	if c.Decoder.Timeout != time.Minute || !c.Decoder.DiscardBadTrailer {
		t.Errorf("decoder config %+v", c.Decoder)
	}
	if c.Decoder.Tolerance != 500*time.Microsecond {
		t.Errorf("default tolerance lost: %v", c.Decoder.Tolerance)
	}
	if c.MQTT.Topic != "home/garden" {
		t.Errorf("MQTT.Topic = %q", c.MQTT.Topic)
	}
}

func TestLoadFlagOverridesLogLevel(t *testing.T) {
	c := NewConfig()
	c.Flag.LogLevel = "trace"
	c.Flag.ConfigFile = writeConfig(t, "auriol.yaml", "debug:\n  file: stdout\n  flag: standard\n")

	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() unexpected error %v", err)
	}
	if c.Debug.FlagString != "trace" {
		t.Errorf("Debug.FlagString = %q, expected trace", c.Debug.FlagString)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"tolerance": "decoder:\n  tolerance: 600\n",
		"timeout":   "decoder:\n  timeout: 0\n",
		"bias":      "gpio:\n  bias: floating\n",
		"qos":       "mqtt:\n  qos: 3\n",
		"log level": "debug:\n  flag: verbose\n",
		"syntax":    "gpio: [\n",
	}

	for name, content := range tests {
		c := NewConfig()
		c.Flag.ConfigFile = writeConfig(t, "auriol.yaml", "debug:\n  file: stdout\n"+content)

		if err := c.LoadConfig(); err == nil {
			t.Errorf("%s: LoadConfig() expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	if err := c.LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}
