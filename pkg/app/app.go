package app

import (
	"net/url"
	"sync"
	"time"

	"auriol/pkg/app/config"
	"auriol/pkg/auriol"
	"auriol/pkg/hd44780"
	"auriol/pkg/metrics"
	"auriol/pkg/mqtt"
	"auriol/pkg/raspberry"
	"auriol/pkg/receiver"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// printer is the display sink.
type printer interface {
	Print(msg string) error
}

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// chip is the gpio chip of the receiver line
	chip *raspberry.Chip
	// rx delivers the rising edges of the 433 MHz receiver
	rx *raspberry.Line
	// decoder decodes the edges to sensor readings
	decoder *receiver.Decoder

	// bus drives the display lines, display is nil if the display is disabled
	bus     *raspberry.OutputBus
	display printer

	// readings holds the last reading of each channel
	readings struct {
		sync.Mutex
		data map[int]record
	}

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	app := &App{
		config:    config,
		urlParsed: u,

		web:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt: mqtt.New(),

		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}
	app.readings.data = map[int]record{}
	metrics.Register()

	return app, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.service()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.chip, err = raspberry.Open(app.config.Gpio.Chip); err != nil {
		debug.ErrorLog.Printf("can't open gpio chip %v: %v", app.config.Gpio.Chip, err)
		return err
	}

	if app.config.Display.Enabled {
		if err = app.initDisplay(); err != nil {
			debug.ErrorLog.Printf("can't open display: %v", err)
			return err
		}
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	if app.rx, err = app.chip.WatchRisingEdges(app.config.Gpio.Rx, app.config.Gpio.Bias); err != nil {
		debug.ErrorLog.Printf("can't watch gpio %v: %v", app.config.Gpio.Rx, err)
		return err
	}

	app.decoder = receiver.New(app.rx.C, app.decoderOptions())

	// initRoutes and initDefaultRoutes should be always called last because it may access things like app.api
	// which must be initialized before in initAPI()
	app.initDefaultRoutes()

	return nil
}

func (app *App) decoderOptions() receiver.Options {
	o := receiver.Options{
		Tolerance: app.config.Decoder.Tolerance,
		Timeout:   app.config.Decoder.Timeout,
	}

	if app.config.Decoder.Holdoff {
		guard := app.config.Decoder.HoldoffGuard
		o.Holdoff = func(r auriol.Reading) time.Duration {
			i, err := auriol.Interval(r.Channel)
			if err != nil || i <= guard {
				return 0
			}
			return i - guard
		}
	}

	return o
}

func (app *App) initDisplay() (err error) {
	d := app.config.Display
	if app.bus, err = raspberry.OpenOutputBus(d.D4, d.D5, d.D6, d.D7, d.EN, d.RS); err != nil {
		return err
	}

	lcd := hd44780.New(app.bus)
	if err = lcd.Init(); err != nil {
		return err
	}
	if err = lcd.Print(awaitingReading); err != nil {
		return err
	}

	app.display = lcd
	return nil
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/main.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/main.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Close releases the line, the decoder, the display and the broker connection.
func (app *App) Close() error {
	if app.rx != nil {
		_ = app.rx.Close()
	}
	if app.decoder != nil {
		_ = app.decoder.Close()
	}
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}
	if app.bus != nil {
		_ = app.bus.Close()
	}
	if app.chip != nil {
		_ = app.chip.Close()
	}
	if app.web != nil {
		_ = app.web.Shutdown()
	}
	return nil
}
