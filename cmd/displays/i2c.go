package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/displays"
	"github.com/mklimuk/displays/adapter"
	"github.com/mklimuk/displays/cmd/displays/console"
	di2c "github.com/mklimuk/displays/i2c"
)

var i2cCmd = cli.Command{
	Name:  "i2c",
	Usage: "drive a display over an I2C bus",
	Subcommands: cli.Commands{
		&i2cDemoCmd,
	},
}

var i2cDemoCmd = cli.Command{
	Name:  "demo",
	Usage: "initialize an SSD1306 class panel and fill it with a pattern",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "periph",
			Usage:   "bus transport: periph or mcp2221",
		},
		&cli.StringFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Value:   "",
			Usage:   "periph bus name, empty for the first available",
		},
		&cli.StringFlag{
			Name:  "addr",
			Value: "0x3C",
			Usage: "7-bit display address",
		},
		&cli.StringFlag{
			Name:    "pattern",
			Aliases: []string{"p"},
			Value:   "0xFF",
			Usage:   "byte pattern to fill the panel with",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		addr, err := parseByte(c.String("addr"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		pattern, err := parseByte(c.String("pattern"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}

		var transport displays.AddressableWriter
		switch c.String("adapter") {
		case "mcp2221":
			transport = adapter.NewMCP2221()
		case "periph":
			bus, err := di2c.NewGenericBus(c.String("bus"))
			if err != nil {
				return console.Exit(1, "could not open bus: %s", console.Red(err))
			}
			defer func() {
				_ = bus.Close()
			}()
			transport = bus
		default:
			return console.Exit(1, "unknown adapter: %s", c.String("adapter"))
		}

		d := di2c.NewDisplay(transport, addr)
		err = runDemo(ctx, d, pattern)
		if err != nil {
			return console.Exit(1, "demo failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoScreen, "panel at %#02x filled with %#02x", addr, pattern)
		return nil
	},
}
