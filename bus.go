package displays

import (
	"context"
)

// BusWriter is a write-only byte transport, typically an SPI connection
// with chip select handled by the port itself.
type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

// AddressableWriter is a write-only transport on a shared bus where the
// target is selected per transaction, typically an I2C controller.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
}

// WriteOnlyDataCommand is the contract display drivers program against.
// It transmits a payload together with the command/data intent; the adapter
// behind it decides how that intent reaches the wire (control byte, select
// line, ...).
//
// Adapter instances are not reentrant: calls on the same instance must be
// serialized by the caller.
type WriteOnlyDataCommand interface {
	// SendCommands transmits controller commands.
	SendCommands(ctx context.Context, data DataFormat) error
	// SendData transmits pixel data.
	SendData(ctx context.Context, data DataFormat) error
}

// Resettable is implemented by adapters owning a hardware reset line.
type Resettable interface {
	Reset(ctx context.Context) error
}
