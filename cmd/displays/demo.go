package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mklimuk/displays"
)

const frameWidth = 128
const frameHeight = 64
const frameSize = frameWidth * frameHeight / 8

// ssd1306Init is a minimal bring-up sequence for a 128x64 SSD1306 class
// controller in horizontal addressing mode.
var ssd1306Init = displays.U8{
	0xAE,       // display off
	0xD5, 0x80, // clock divide ratio
	0xA8, 0x3F, // multiplex 64
	0xD3, 0x00, // no display offset
	0x40,       // start line 0
	0x8D, 0x14, // enable charge pump
	0x20, 0x00, // horizontal addressing
	0xA1, 0xC8, // flip segment and com scan
	0xDA, 0x12, // com pins configuration
	0x81, 0xCF, // contrast
	0xD9, 0xF1, // precharge periods
	0xDB, 0x40, // vcom deselect level
	0xA4,       // resume from ram content
	0xA6,       // normal polarity
	0xAF,       // display on
}

// full column and page window, so a frame of data wraps around the panel
var ssd1306FullWindow = displays.U8{
	0x21, 0x00, frameWidth - 1,
	0x22, 0x00, frameHeight/8 - 1,
}

// runDemo initializes the panel and fills it with a repeating byte pattern
// through whichever bus interface it was handed.
func runDemo(ctx context.Context, d displays.WriteOnlyDataCommand, pattern byte) error {
	err := d.SendCommands(ctx, ssd1306Init)
	if err != nil {
		return fmt.Errorf("could not initialize display: %w", err)
	}
	err = d.SendCommands(ctx, ssd1306FullWindow)
	if err != nil {
		return fmt.Errorf("could not set drawing window: %w", err)
	}
	frame := make(displays.U8, frameSize)
	for i := range frame {
		frame[i] = pattern
	}
	err = d.SendData(ctx, frame)
	if err != nil {
		return fmt.Errorf("could not push frame: %w", err)
	}
	return nil
}

func parseByte(raw string) (byte, error) {
	value, err := strconv.ParseUint(raw, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", raw, err)
	}
	return byte(value), nil
}
