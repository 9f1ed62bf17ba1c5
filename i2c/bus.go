package i2c

import (
	"context"
	"fmt"

	"github.com/mklimuk/displays"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var _ displays.AddressableWriter = &GenericBus{}

// GenericBus exposes a periph.io I2C bus as a display transport.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens the I2C bus registered under dev (for example
// "/dev/i2c-1" or "1") after initializing the periph host drivers.
func NewGenericBus(dev string) (*GenericBus, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
