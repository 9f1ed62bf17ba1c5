package parallel

import (
	"context"
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/mklimuk/displays"
)

const defaultResetHold = 10 * time.Millisecond

// lines bundles the control lines shared by both bus widths: data/command
// select, chip select, write strobe and the optional reset line.
type lines struct {
	dc        gpio.PinOut
	cs        gpio.PinOut
	wr        gpio.PinOut
	rst       gpio.PinOut
	resetHold time.Duration
}

type Opt func(*lines)

// WithResetLine hands ownership of a dedicated reset line to the adapter,
// enabling Reset.
func WithResetLine(rst gpio.PinOut) Opt {
	return func(l *lines) {
		l.rst = rst
	}
}

// WithResetHold overrides how long the reset line is held in each state
// during Reset.
func WithResetHold(hold time.Duration) Opt {
	return func(l *lines) {
		l.resetHold = hold
	}
}

// begin opens a transfer: chip select active, then the command/data intent.
// Both lines stay stable for the whole call.
func (l *lines) begin(dc gpio.Level) error {
	err := l.cs.Out(gpio.Low)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrCSLine, err)
	}
	err = l.dc.Out(dc)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrDCLine, err)
	}
	return nil
}

// end closes the transfer, deasserting chip select even after a failed
// write so the bus is not left claimed.
func (l *lines) end(err error) error {
	cserr := l.cs.Out(gpio.High)
	if cserr != nil && err == nil {
		return fmt.Errorf("%w: %w", displays.ErrCSLine, cserr)
	}
	return err
}

// pulseWR latches the current bus value on the low to high transition of
// the write strobe. Strobe faults belong to the write path.
func (l *lines) pulseWR() error {
	err := l.wr.Out(gpio.Low)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	err = l.wr.Out(gpio.High)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	return nil
}

// Reset pulses the reset line through a low/hold/high/hold sequence. It is
// separate from the write path: reset faults usually mean a wiring or power
// problem, not a failed transaction.
func (l *lines) Reset(ctx context.Context) error {
	if l.rst == nil {
		return fmt.Errorf("%w: no reset line configured", displays.ErrResetLine)
	}
	err := l.rst.Out(gpio.Low)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrResetLine, err)
	}
	err = hold(ctx, l.resetHold)
	if err != nil {
		return err
	}
	err = l.rst.Out(gpio.High)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrResetLine, err)
	}
	return hold(ctx, l.resetHold)
}

func hold(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newLines(dc, cs, wr gpio.PinOut, opts []Opt) lines {
	l := lines{
		dc:        dc,
		cs:        cs,
		wr:        wr,
		resetHold: defaultResetHold,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

var (
	_ displays.WriteOnlyDataCommand = &Display8{}
	_ displays.Resettable           = &Display8{}
)

// Display8 drives a display controller over an 8080-style 8-bit parallel
// bus, bit-banging the control lines itself: per word it drives the output
// bus and pulses the write strobe, while chip select and the data/command
// line stay stable for the whole call.
type Display8 struct {
	bus OutputBus8
	lines
}

// NewDisplay8 creates a parallel interface from an 8-bit output bus and
// owned data/command, chip select and write strobe lines.
func NewDisplay8(bus OutputBus8, dc, cs, wr gpio.PinOut, opts ...Opt) *Display8 {
	return &Display8{
		bus:   bus,
		lines: newLines(dc, cs, wr, opts),
	}
}

// SendCommands transmits command words with the data/command line held low.
func (d *Display8) SendCommands(ctx context.Context, data displays.DataFormat) error {
	return d.send(gpio.Low, data)
}

// SendData transmits display data with the data/command line held high.
func (d *Display8) SendData(ctx context.Context, data displays.DataFormat) error {
	return d.send(gpio.High, data)
}

// Release consumes the interface and returns the output bus and control
// lines. The reset line is nil when none was configured.
func (d *Display8) Release() (bus OutputBus8, dc, cs, wr, rst gpio.PinOut) {
	bus, dc, cs, wr, rst = d.bus, d.dc, d.cs, d.wr, d.rst
	d.bus = nil
	d.lines = lines{}
	return bus, dc, cs, wr, rst
}

func (d *Display8) send(dc gpio.Level, data displays.DataFormat) error {
	err := d.begin(dc)
	if err != nil {
		return err
	}
	return d.end(d.write(data))
}

func (d *Display8) write(data displays.DataFormat) error {
	switch data := data.(type) {
	case displays.U8:
		return d.writeBytes(slices.Values(data))
	case displays.U8Iter:
		return d.writeBytes(iter.Seq[byte](data))
	case displays.U16BE:
		return d.writePairs(slices.Values(data), binary.BigEndian)
	case displays.U16LE:
		return d.writePairs(slices.Values(data), binary.LittleEndian)
	case displays.U16BEIter:
		return d.writePairs(iter.Seq[uint16](data), binary.BigEndian)
	case displays.U16LEIter:
		return d.writePairs(iter.Seq[uint16](data), binary.LittleEndian)
	default:
		return displays.ErrFormatNotSupported
	}
}

func (d *Display8) writeBytes(values iter.Seq[byte]) error {
	for value := range values {
		err := d.strobe(value)
		if err != nil {
			return err
		}
	}
	return nil
}

// writePairs splits 16-bit words into byte pairs in the declared endianness,
// two strobes per word.
func (d *Display8) writePairs(words iter.Seq[uint16], order binary.ByteOrder) error {
	var pair [2]byte
	for word := range words {
		order.PutUint16(pair[:], word)
		err := d.strobe(pair[0])
		if err != nil {
			return err
		}
		err = d.strobe(pair[1])
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Display8) strobe(value uint8) error {
	err := d.bus.SetValue(value)
	if err != nil {
		return err
	}
	return d.pulseWR()
}

var (
	_ displays.WriteOnlyDataCommand = &Display16{}
	_ displays.Resettable           = &Display16{}
)

// Display16 drives a display controller over an 8080-style 16-bit parallel
// bus. Endianness tags are irrelevant here: the data lines carry a whole
// word at once. 8-bit payloads are widened to one word per byte.
type Display16 struct {
	bus OutputBus16
	lines
}

// NewDisplay16 creates a parallel interface from a 16-bit output bus and
// owned data/command, chip select and write strobe lines.
func NewDisplay16(bus OutputBus16, dc, cs, wr gpio.PinOut, opts ...Opt) *Display16 {
	return &Display16{
		bus:   bus,
		lines: newLines(dc, cs, wr, opts),
	}
}

// SendCommands transmits command words with the data/command line held low.
func (d *Display16) SendCommands(ctx context.Context, data displays.DataFormat) error {
	return d.send(gpio.Low, data)
}

// SendData transmits display data with the data/command line held high.
func (d *Display16) SendData(ctx context.Context, data displays.DataFormat) error {
	return d.send(gpio.High, data)
}

// Release consumes the interface and returns the output bus and control
// lines. The reset line is nil when none was configured.
func (d *Display16) Release() (bus OutputBus16, dc, cs, wr, rst gpio.PinOut) {
	bus, dc, cs, wr, rst = d.bus, d.dc, d.cs, d.wr, d.rst
	d.bus = nil
	d.lines = lines{}
	return bus, dc, cs, wr, rst
}

func (d *Display16) send(dc gpio.Level, data displays.DataFormat) error {
	err := d.begin(dc)
	if err != nil {
		return err
	}
	return d.end(d.write(data))
}

func (d *Display16) write(data displays.DataFormat) error {
	switch data := data.(type) {
	case displays.U8:
		return d.writeWidened(slices.Values(data))
	case displays.U8Iter:
		return d.writeWidened(iter.Seq[byte](data))
	case displays.U16BE:
		return d.writeWords(slices.Values(data))
	case displays.U16LE:
		return d.writeWords(slices.Values(data))
	case displays.U16BEIter:
		return d.writeWords(iter.Seq[uint16](data))
	case displays.U16LEIter:
		return d.writeWords(iter.Seq[uint16](data))
	default:
		return displays.ErrFormatNotSupported
	}
}

func (d *Display16) writeWidened(values iter.Seq[byte]) error {
	for value := range values {
		err := d.strobe(uint16(value))
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Display16) writeWords(words iter.Seq[uint16]) error {
	for word := range words {
		err := d.strobe(word)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Display16) strobe(value uint16) error {
	err := d.bus.SetValue(value)
	if err != nil {
		return err
	}
	return d.pulseWR()
}
