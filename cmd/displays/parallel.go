package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/displays/cmd/displays/console"
	"github.com/mklimuk/displays/parallel"
)

// wiring describes how a parallel panel is connected, read from a yaml file
// so a demo run does not take a dozen pin flags.
type wiring struct {
	// data lines, least significant bit first
	Data []string `yaml:"data"`
	DC   string   `yaml:"dc"`
	CS   string   `yaml:"cs"`
	WR   string   `yaml:"wr"`
	RST  string   `yaml:"rst,omitempty"`
}

func loadWiring(path string) (*wiring, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read wiring file: %w", err)
	}
	var w wiring
	err = yaml.Unmarshal(raw, &w)
	if err != nil {
		return nil, fmt.Errorf("could not parse wiring file: %w", err)
	}
	if len(w.Data) != 8 {
		return nil, fmt.Errorf("expected 8 data lines, got %d", len(w.Data))
	}
	if w.DC == "" || w.CS == "" || w.WR == "" {
		return nil, fmt.Errorf("dc, cs and wr lines are all required")
	}
	return &w, nil
}

func pinByName(name string) (gpio.PinOut, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown gpio line: %s", name)
	}
	return pin, nil
}

var parallelCmd = cli.Command{
	Name:  "parallel",
	Usage: "drive a display over an 8-bit parallel gpio bus",
	Subcommands: cli.Commands{
		&parallelDemoCmd,
	},
}

var parallelDemoCmd = cli.Command{
	Name:  "demo",
	Usage: "initialize a panel wired per a yaml file and fill it with a pattern",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "wiring",
			Aliases:  []string{"w"},
			Usage:    "yaml wiring description",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "pattern",
			Value: "0xFF",
			Usage: "byte pattern to fill the panel with",
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "skip the wiring confirmation prompt",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		pattern, err := parseByte(c.String("pattern"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		w, err := loadWiring(c.String("wiring"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}

		console.PInfof(console.PictoPin, "data lines (lsb first): %s", strings.Join(w.Data, ", "))
		console.PInfof(console.PictoPin, "dc: %s, cs: %s, wr: %s, rst: %s", w.DC, w.CS, w.WR, w.RST)
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("drive these lines?")
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}

		_, err = host.Init()
		if err != nil {
			return console.Exit(1, "could not init host: %s", console.Red(err))
		}
		var data [8]gpio.PinOut
		for i, name := range w.Data {
			data[i], err = pinByName(name)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
		}
		dc, err := pinByName(w.DC)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		cs, err := pinByName(w.CS)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		wr, err := pinByName(w.WR)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		var opts []parallel.Opt
		if w.RST != "" {
			rst, err := pinByName(w.RST)
			if err != nil {
				return console.Exit(1, "%s", console.Red(err))
			}
			opts = append(opts, parallel.WithResetLine(rst))
		}

		bus := parallel.NewBus8(data[0], data[1], data[2], data[3], data[4], data[5], data[6], data[7])
		d := parallel.NewDisplay8(bus, dc, cs, wr, opts...)
		if w.RST != "" {
			err = d.Reset(ctx)
			if err != nil {
				return console.Exit(1, "reset failed: %s", console.Red(err))
			}
		}
		err = runDemo(ctx, d, pattern)
		if err != nil {
			return console.Exit(1, "demo failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoScreen, "panel filled with %#02x", pattern)
		return nil
	},
}
