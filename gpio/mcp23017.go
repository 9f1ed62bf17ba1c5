package gpio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/displays"
	"github.com/mklimuk/displays/parallel"
)

type register int

const DefaultMCP23017Address = 0x21

const (
	IODIRA register = iota
	IODIRB
	GPPUA
	GPPUB
	GPIOA
	GPIOB
	IOCON
)

// register addresses for both IOCON.BANK layouts
var bankAddr = []map[register]byte{
	{
		IODIRA: 0x00,
		IODIRB: 0x01,
		GPPUA:  0x0C,
		GPPUB:  0x0D,
		GPIOA:  0x12,
		GPIOB:  0x13,
		IOCON:  0x0A,
	},
	{
		IODIRA: 0x00,
		IODIRB: 0x10,
		GPPUA:  0x06,
		GPPUB:  0x16,
		GPIOA:  0x09,
		GPIOB:  0x19,
		IOCON:  0x05,
	},
}

type busReleaser interface {
	Release(ctx context.Context) error
}

// MCP23017 drives the I2C port expander as a write-only source of parallel
// data lines. Port A, port B or both chained together can back a parallel
// display bus when the host runs out of native gpio.
type MCP23017 struct {
	mx         sync.Mutex
	transport  displays.AddressableWriter
	bank       int
	address    byte
	retryLimit int
}

func NewMCP23017(bus displays.AddressableWriter, address byte) *MCP23017 {
	return &MCP23017{retryLimit: 1, transport: bus, address: address}
}

// InitOutputA configures every port A line as an output.
func (m *MCP23017) InitOutputA(ctx context.Context) error {
	err := m.writeRegister(ctx, IODIRA, 0x00)
	if err != nil {
		return fmt.Errorf("could not configure port A direction: %w", err)
	}
	return nil
}

// InitOutputB configures every port B line as an output.
func (m *MCP23017) InitOutputB(ctx context.Context) error {
	err := m.writeRegister(ctx, IODIRB, 0x00)
	if err != nil {
		return fmt.Errorf("could not configure port B direction: %w", err)
	}
	return nil
}

// PortA exposes port A as an 8-bit output bus. The bus is bound to ctx, every
// SetValue goes out as an I2C transaction under it.
func (m *MCP23017) PortA(ctx context.Context) *PortBus8 {
	return &PortBus8{ctx: ctx, expander: m, port: GPIOA}
}

// PortB exposes port B as an 8-bit output bus.
func (m *MCP23017) PortB(ctx context.Context) *PortBus8 {
	return &PortBus8{ctx: ctx, expander: m, port: GPIOB}
}

// Ports exposes ports A and B chained into a 16-bit output bus, port A
// carrying the low byte.
func (m *MCP23017) Ports(ctx context.Context) *PortBus16 {
	return &PortBus16{ctx: ctx, expander: m}
}

// writeRegister retries busy rejections once after asking the transport to
// release the bus engine.
func (m *MCP23017) writeRegister(ctx context.Context, reg register, values ...byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	buffer := append([]byte{bankAddr[m.bank][reg]}, values...)
	var err error
	for i := m.retryLimit; i >= 0; i-- {
		err = m.transport.WriteToAddr(ctx, m.address, buffer)
		if err == nil {
			return nil
		}
		if !errors.Is(err, displays.ErrBusBusy) {
			return err
		}
		// try to release the bus
		if releaser, ok := m.transport.(busReleaser); ok {
			_ = releaser.Release(ctx)
		}
	}
	return fmt.Errorf("retry limit reached: %w", err)
}

var _ parallel.OutputBus8 = &PortBus8{}

// PortBus8 drives a single expander port as a parallel data bus.
type PortBus8 struct {
	ctx      context.Context
	expander *MCP23017
	port     register
	last     uint8
	known    bool
}

func (b *PortBus8) SetValue(value uint8) error {
	if b.known && value == b.last {
		return nil
	}
	b.known = false
	err := b.expander.writeRegister(b.ctx, b.port, value)
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	b.last = value
	b.known = true
	return nil
}

var _ parallel.OutputBus16 = &PortBus16{}

// PortBus16 drives both expander ports as one 16-bit data bus. Both bytes go
// out in a single transaction using the sequential register pointer.
type PortBus16 struct {
	ctx      context.Context
	expander *MCP23017
	last     uint16
	known    bool
}

func (b *PortBus16) SetValue(value uint16) error {
	if b.known && value == b.last {
		return nil
	}
	b.known = false
	err := b.expander.writeRegister(b.ctx, GPIOA, uint8(value), uint8(value>>8))
	if err != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
	}
	b.last = value
	b.known = true
	return nil
}
