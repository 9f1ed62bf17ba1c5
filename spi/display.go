package spi

import (
	"context"
	"encoding/binary"
	"fmt"
	"iter"
	"slices"

	"periph.io/x/conn/v3/gpio"

	"github.com/mklimuk/displays"
)

// chunkSize is the size of the staging buffer used to stream lazy and
// 16-bit payloads without materializing them fully.
const chunkSize = 64

var _ displays.WriteOnlyDataCommand = &Display{}

type Opt func(*Display)

// WithChipSelect hands ownership of the chip select line to the adapter,
// which asserts it low around every transaction. Leave it unset when the SPI
// port drives chip select itself, otherwise the line would be driven twice.
func WithChipSelect(cs gpio.PinOut) Opt {
	return func(d *Display) {
		d.cs = cs
	}
}

// Display drives a display controller over a write-only SPI transport plus a
// data/command select line (low for commands, high for data).
type Display struct {
	transport displays.BusWriter
	dc        gpio.PinOut
	cs        gpio.PinOut
	buf       []byte
}

// NewDisplay creates a display interface from an already-initialized SPI
// transport and an owned data/command line.
func NewDisplay(transport displays.BusWriter, dc gpio.PinOut, opts ...Opt) *Display {
	d := &Display{
		transport: transport,
		dc:        dc,
		buf:       make([]byte, 0, chunkSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendCommands transmits command bytes with the data/command line held low.
func (d *Display) SendCommands(ctx context.Context, data displays.DataFormat) error {
	return d.send(ctx, gpio.Low, data)
}

// SendData transmits display data with the data/command line held high.
func (d *Display) SendData(ctx context.Context, data displays.DataFormat) error {
	return d.send(ctx, gpio.High, data)
}

// Release consumes the display interface and returns the transport and the
// lines it was constructed with. The chip select line is nil when the
// transport manages it.
func (d *Display) Release() (displays.BusWriter, gpio.PinOut, gpio.PinOut) {
	transport, dc, cs := d.transport, d.dc, d.cs
	d.transport, d.dc, d.cs = nil, nil, nil
	return transport, dc, cs
}

func (d *Display) send(ctx context.Context, dc gpio.Level, data displays.DataFormat) error {
	err := d.dc.Out(dc)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrDCLine, err)
	}
	if d.cs != nil {
		err = d.cs.Out(gpio.Low)
		if err != nil {
			return fmt.Errorf("%w: %w", displays.ErrCSLine, err)
		}
	}
	err = d.write(ctx, data)
	if d.cs != nil {
		// deassert even on a failed write so the bus is left idle
		cserr := d.cs.Out(gpio.High)
		if cserr != nil && err == nil {
			err = fmt.Errorf("%w: %w", displays.ErrCSLine, cserr)
		}
	}
	return err
}

func (d *Display) write(ctx context.Context, data displays.DataFormat) error {
	switch data := data.(type) {
	case displays.U8:
		if len(data) == 0 {
			return nil
		}
		return d.flush(ctx, data)
	case displays.U8Iter:
		buf := d.buf[:0]
		for b := range data {
			buf = append(buf, b)
			if len(buf) == chunkSize {
				if err := d.flush(ctx, buf); err != nil {
					return err
				}
				buf = buf[:0]
			}
		}
		if len(buf) > 0 {
			return d.flush(ctx, buf)
		}
		return nil
	case displays.U16BE:
		return d.writeWords(ctx, slices.Values(data), binary.BigEndian)
	case displays.U16LE:
		return d.writeWords(ctx, slices.Values(data), binary.LittleEndian)
	case displays.U16BEIter:
		return d.writeWords(ctx, iter.Seq[uint16](data), binary.BigEndian)
	case displays.U16LEIter:
		return d.writeWords(ctx, iter.Seq[uint16](data), binary.LittleEndian)
	default:
		return displays.ErrFormatNotSupported
	}
}

// writeWords streams 16-bit words through the staging buffer, expanded to
// bytes in the requested order.
func (d *Display) writeWords(ctx context.Context, words iter.Seq[uint16], order binary.AppendByteOrder) error {
	buf := d.buf[:0]
	for word := range words {
		buf = order.AppendUint16(buf, word)
		if len(buf) == chunkSize {
			if err := d.flush(ctx, buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		return d.flush(ctx, buf)
	}
	return nil
}

func (d *Display) flush(ctx context.Context, buf []byte) error {
	err := d.transport.Write(ctx, buf)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	return nil
}
