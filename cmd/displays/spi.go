package main

import (
	"context"

	"github.com/urfave/cli/v2"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/displays"
	"github.com/mklimuk/displays/cmd/displays/console"
	dspi "github.com/mklimuk/displays/spi"
)

var spiCmd = cli.Command{
	Name:  "spi",
	Usage: "drive a display over an SPI port",
	Subcommands: cli.Commands{
		&spiDemoCmd,
	},
}

var spiDemoCmd = cli.Command{
	Name:  "demo",
	Usage: "initialize an SSD1306 class panel and fill it with a pattern",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "periph",
			Usage:   "port transport: periph or gobot (nanopi neo)",
		},
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   "",
			Usage:   "port name, empty for the first available",
		},
		&cli.IntFlag{
			Name:  "speed",
			Value: 8,
			Usage: "clock speed in MHz",
		},
		&cli.StringFlag{
			Name:     "dc",
			Usage:    "data/command gpio line name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "cs",
			Usage: "chip select gpio line name, empty when the port drives it",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Value: "0xFF",
			Usage: "byte pattern to fill the panel with",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		pattern, err := parseByte(c.String("pattern"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}

		var transport displays.BusWriter
		switch c.String("adapter") {
		case "gobot":
			adaptor := nanopi.NewNeoAdaptor()
			driver := gobotspi.NewDriver(adaptor, c.String("port"))
			err = driver.Start()
			if err != nil {
				return console.Exit(1, "could not start spi driver: %s", console.Red(err))
			}
			defer func() {
				_ = driver.Halt()
			}()
			transport = dspi.NewGobotWriter(driver.Connection())
			// control lines still come from the periph registry
			if _, err = host.Init(); err != nil {
				return console.Exit(1, "could not init host: %s", console.Red(err))
			}
		case "periph":
			port, err := dspi.NewGenericPort(c.String("port"), physic.Frequency(c.Int("speed"))*physic.MegaHertz)
			if err != nil {
				return console.Exit(1, "could not open port: %s", console.Red(err))
			}
			defer func() {
				_ = port.Close()
			}()
			transport = port
		default:
			return console.Exit(1, "unknown adapter: %s", c.String("adapter"))
		}

		dc := gpioreg.ByName(c.String("dc"))
		if dc == nil {
			return console.Exit(1, "unknown gpio line: %s", c.String("dc"))
		}
		var opts []dspi.Opt
		if name := c.String("cs"); name != "" {
			cs := gpioreg.ByName(name)
			if cs == nil {
				return console.Exit(1, "unknown gpio line: %s", name)
			}
			opts = append(opts, dspi.WithChipSelect(cs))
		}

		d := dspi.NewDisplay(transport, dc, opts...)
		err = runDemo(ctx, d, pattern)
		if err != nil {
			return console.Exit(1, "demo failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoScreen, "panel filled with %#02x", pattern)
		return nil
	},
}
