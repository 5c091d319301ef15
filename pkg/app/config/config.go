package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Config defines the struct of global config and the struct of the configuration file.
// Durations are configured as integers (see the *Int fields) and converted by LoadConfig.
type Config struct {
	Flag      FlagConfig      `yaml:"-" toml:"-"`
	Gpio      GpioConfig      `yaml:"gpio" toml:"gpio"`
	Decoder   DecoderConfig   `yaml:"decoder" toml:"decoder"`
	Display   DisplayConfig   `yaml:"display" toml:"display"`
	Debug     DebugConfig     `yaml:"debug" toml:"debug"`
	Webserver WebserverConfig `yaml:"webserver" toml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt" toml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	LogLevel   string
	ConfigFile string
}

// GpioConfig defines the receiver input line.
type GpioConfig struct {
	Chip string `yaml:"chip" toml:"chip"`
	Rx   int    `yaml:"rx" toml:"rx"`
	// Bias is none, pullup or pulldown.
	Bias string `yaml:"bias" toml:"bias"`
}

// DecoderConfig defines the timing of the decoder.
type DecoderConfig struct {
	ToleranceInt      int           `yaml:"tolerance" toml:"tolerance"` // µs
	Tolerance         time.Duration `yaml:"-" toml:"-"`
	TimeoutInt        int           `yaml:"timeout" toml:"timeout"` // s
	Timeout           time.Duration `yaml:"-" toml:"-"`
	Holdoff           bool          `yaml:"holdoff" toml:"holdoff"`
	HoldoffGuardInt   int           `yaml:"holdoffguard" toml:"holdoffguard"` // s
	HoldoffGuard      time.Duration `yaml:"-" toml:"-"`
	DiscardBadTrailer bool          `yaml:"discardbadtrailer" toml:"discardbadtrailer"`
}

// DisplayConfig defines the BCM pins of the HD44780 display.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	D4      int  `yaml:"d4" toml:"d4"`
	D5      int  `yaml:"d5" toml:"d5"`
	D6      int  `yaml:"d6" toml:"d6"`
	D7      int  `yaml:"d7" toml:"d7"`
	EN      int  `yaml:"en" toml:"en"`
	RS      int  `yaml:"rs" toml:"rs"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url" toml:"url"`
	Webservices map[string]bool `yaml:"webservices" toml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection" toml:"connection"`
	// RawTopic receives the raw packet, Topic/<channel> receives the reading as json.
	RawTopic string `yaml:"rawtopic" toml:"rawtopic"`
	Topic    string `yaml:"topic" toml:"topic"`
	Qos      byte   `yaml:"qos" toml:"qos"`
	Retained bool   `yaml:"retained" toml:"retained"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-" toml:"-"`
	Flag       int            `yaml:"-" toml:"-"`
	FlagString string         `yaml:"flag" toml:"flag"`
	FileString string         `yaml:"file" toml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Flag: FlagConfig{},
		Gpio: GpioConfig{
			Chip: "gpiochip0",
			Rx:   4,
			Bias: "none",
		},
		Decoder: DecoderConfig{
			ToleranceInt:    500,
			TimeoutInt:      80,
			Holdoff:         true,
			HoldoffGuardInt: 5,
		},
		Display: DisplayConfig{
			D4: 22, D5: 23, D6: 24, D7: 25, EN: 18, RS: 17,
		},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
				"metrics": true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "tcp://127.0.0.1:1883",
			RawTopic:   "weather/raw",
			Topic:      "weather/auriol",
			Qos:        2,
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.Decoder.Tolerance = time.Duration(c.Decoder.ToleranceInt) * time.Microsecond
	c.Decoder.Timeout = time.Duration(c.Decoder.TimeoutInt) * time.Second
	c.Decoder.HoldoffGuard = time.Duration(c.Decoder.HoldoffGuardInt) * time.Second

	return c.validate()
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if strings.EqualFold(filepath.Ext(c.Flag.ConfigFile), ".toml") {
		_, err = toml.NewDecoder(file).Decode(c)
		return err
	}

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) validate() error {
	switch {
	case c.Decoder.Tolerance <= 0 || c.Decoder.Tolerance > 500*time.Microsecond:
		return fmt.Errorf("decoder tolerance %v out of range (1..500 µs)", c.Decoder.Tolerance)
	case c.Decoder.Timeout <= 0:
		return fmt.Errorf("invalid decoder timeout %v", c.Decoder.Timeout)
	case c.Decoder.HoldoffGuard < 0:
		return fmt.Errorf("invalid hold-off guard %v", c.Decoder.HoldoffGuard)
	case c.MQTT.Qos > 2:
		return fmt.Errorf("invalid mqtt qos %v", c.MQTT.Qos)
	}

	switch c.Gpio.Bias {
	case "none", "pullup", "pulldown":
	default:
		return fmt.Errorf("invalid gpio bias %q", c.Gpio.Bias)
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	default:
		return fmt.Errorf("invalid log level %q", c.Debug.FlagString)
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
