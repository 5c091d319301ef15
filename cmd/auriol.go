package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"auriol/pkg/app"
	"auriol/pkg/app/config"
	"auriol/pkg/auriol"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Decoder for the Auriol 433 MHz remote temperature and humidity sensor",
		Version: app.VERSION,
		Description: "Decode the transmissions of the Auriol remote sensor (IAN 331821_1907) received by a" +
			"\n 433 MHz receiver on a raspberry gpio, show them on a HD44780 display and write them to mqtt.",
		UsageText: "auriol [--config <file>] [--log standard|debug|trace]" +
			"\n   auriol decode <packet>" +
			"\n\nEXAMPLE:" +
			"\n\tstart the decoder and use the configuration file auriol.yaml" +
			"\n\t\tauriol --config /opt/womat/auriol.yaml" +
			"\n\tdecode a raw packet published to weather/raw" +
			"\n\t\tauriol decode 319990723464",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE` (.yaml or .toml)"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Usage: "`LEVEL` defines the log level (standard|debug|trace), overrides the configuration file"},
		},
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "decode raw packets as published to the raw topic",
				ArgsUsage: "<packet> [<packet> ...]",
				Action:    decode,
			},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer func() {
				if cfg.Debug.File == os.Stderr || cfg.Debug.File == os.Stdout {
					return
				}
				debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
				_ = cfg.Debug.File.Close()
			}()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			// wait for am os.Interrupt signal (CTRL C)
			select {
			case sig := <-quit:
				debug.InfoLog.Printf("Got %s signal. Aborting...", sig)
			case <-a.Shutdown():
				debug.InfoLog.Print("shutdown requested")
			}

			return nil
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
	return
}

// decode prints the readings of raw packets given as arguments.
func decode(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("missing packet, see %s decode --help", app.MODULE)
	}

	for _, arg := range ctx.Args().Slice() {
		v, err := strconv.ParseUint(arg, 0, 40)
		if err != nil {
			return fmt.Errorf("invalid packet %q: %w", arg, err)
		}

		p := auriol.Packet(v)
		r := p.Reading()
		fmt.Fprintf(ctx.App.Writer, "%#012x: %v,unknown=%x,trailer=%x\n", v, r, p.Unknown(), r.Trailer)
	}
	return nil
}
