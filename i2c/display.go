package i2c

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/displays"
)

// DefaultAddress is the usual 7-bit address of SSD1306/SH1106 class displays.
const DefaultAddress = 0x3C

// Control bytes prefixed to every transaction. I2C has no electrical
// command/data signal, so the intent travels as the first byte on the wire:
// 0x00 announces commands, 0x40 announces display data.
const (
	ctrlCommand byte = 0x00
	ctrlData    byte = 0x40
)

var _ displays.WriteOnlyDataCommand = &Display{}

// Display drives a display controller over an I2C transport. Each call is a
// single write transaction of the control byte followed by the payload, so
// lazy payload variants are materialized into an internal buffer first.
type Display struct {
	transport displays.AddressableWriter
	addr      byte
	buf       []byte
}

// NewDisplay creates a display interface on top of an already-initialized
// I2C transport and a 7-bit target address.
func NewDisplay(transport displays.AddressableWriter, addr byte) *Display {
	return &Display{
		transport: transport,
		addr:      addr,
		buf:       make([]byte, 0, 64),
	}
}

// SendCommands transmits command bytes prefixed with the 0x00 control byte.
func (d *Display) SendCommands(ctx context.Context, data displays.DataFormat) error {
	return d.send(ctx, ctrlCommand, data)
}

// SendData transmits display data prefixed with the 0x40 control byte.
func (d *Display) SendData(ctx context.Context, data displays.DataFormat) error {
	return d.send(ctx, ctrlData, data)
}

// Release consumes the display interface and returns the underlying
// transport so it can be reused for other targets on the same bus.
func (d *Display) Release() displays.AddressableWriter {
	transport := d.transport
	d.transport = nil
	return transport
}

func (d *Display) send(ctx context.Context, ctrl byte, data displays.DataFormat) error {
	buf, err := d.materialize(ctrl, data)
	if err != nil {
		return err
	}
	err = d.transport.WriteToAddr(ctx, d.addr, buf)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	return nil
}

// materialize builds the wire image of one transaction: the control byte
// followed by the payload expanded to bytes in its declared endianness.
func (d *Display) materialize(ctrl byte, data displays.DataFormat) ([]byte, error) {
	buf := append(d.buf[:0], ctrl)
	switch data := data.(type) {
	case displays.U8:
		buf = append(buf, data...)
	case displays.U8Iter:
		for b := range data {
			buf = append(buf, b)
		}
	case displays.U16BE:
		for _, word := range data {
			buf = binary.BigEndian.AppendUint16(buf, word)
		}
	case displays.U16LE:
		for _, word := range data {
			buf = binary.LittleEndian.AppendUint16(buf, word)
		}
	case displays.U16BEIter:
		for word := range data {
			buf = binary.BigEndian.AppendUint16(buf, word)
		}
	case displays.U16LEIter:
		for word := range data {
			buf = binary.LittleEndian.AppendUint16(buf, word)
		}
	default:
		return nil, displays.ErrFormatNotSupported
	}
	d.buf = buf[:0]
	return buf, nil
}
