package parallel

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/mklimuk/displays"
)

// OutputBus8 drives eight parallel data lines as a single unit.
type OutputBus8 interface {
	// SetValue asserts the word across the data lines. Failures map to
	// displays.ErrBusWrite.
	SetValue(value uint8) error
}

// OutputBus16 drives sixteen parallel data lines as a single unit.
type OutputBus16 interface {
	SetValue(value uint16) error
}

var _ OutputBus8 = &Bus8{}

// Bus8 is a generic OutputBus8 over eight owned GPIO lines.
type Bus8 struct {
	pins [8]gpio.PinOut
	last uint8
	// set once the pin levels are known to match last
	known bool
}

// NewBus8 creates a bus from eight output lines, least significant bit
// first. Pin state is not changed until the first SetValue.
func NewBus8(p0, p1, p2, p3, p4, p5, p6, p7 gpio.PinOut) *Bus8 {
	return &Bus8{pins: [8]gpio.PinOut{p0, p1, p2, p3, p4, p5, p6, p7}}
}

// Release consumes the bus and returns its pins without changing their
// state, least significant bit first.
func (b *Bus8) Release() [8]gpio.PinOut {
	pins := b.pins
	b.pins = [8]gpio.PinOut{}
	return pins
}

func (b *Bus8) SetValue(value uint8) error {
	// consecutive identical words are common when filling or clearing the
	// screen, skip the pin writes entirely in that case
	if b.known && value == b.last {
		return nil
	}
	changed := value ^ b.last
	if !b.known {
		changed = 0xFF
	}
	// levels are unknown again until every changed pin is driven
	b.known = false
	for i, pin := range b.pins {
		mask := uint8(1) << i
		if changed&mask == 0 {
			continue
		}
		err := pin.Out(gpio.Level(value&mask != 0))
		if err != nil {
			return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
		}
	}
	b.last = value
	b.known = true
	return nil
}

var _ OutputBus16 = &Bus16{}

// Bus16 is a generic OutputBus16 over sixteen owned GPIO lines.
type Bus16 struct {
	pins  [16]gpio.PinOut
	last  uint16
	known bool
}

// NewBus16 creates a bus from sixteen output lines, least significant bit
// first. Pin state is not changed until the first SetValue.
func NewBus16(
	p0, p1, p2, p3, p4, p5, p6, p7,
	p8, p9, p10, p11, p12, p13, p14, p15 gpio.PinOut,
) *Bus16 {
	return &Bus16{pins: [16]gpio.PinOut{
		p0, p1, p2, p3, p4, p5, p6, p7,
		p8, p9, p10, p11, p12, p13, p14, p15,
	}}
}

// Release consumes the bus and returns its pins without changing their
// state, least significant bit first.
func (b *Bus16) Release() [16]gpio.PinOut {
	pins := b.pins
	b.pins = [16]gpio.PinOut{}
	return pins
}

func (b *Bus16) SetValue(value uint16) error {
	if b.known && value == b.last {
		return nil
	}
	changed := value ^ b.last
	if !b.known {
		changed = 0xFFFF
	}
	b.known = false
	for i, pin := range b.pins {
		mask := uint16(1) << i
		if changed&mask == 0 {
			continue
		}
		err := pin.Out(gpio.Level(value&mask != 0))
		if err != nil {
			return fmt.Errorf("%w: %w", displays.ErrBusWrite, err)
		}
	}
	b.last = value
	b.known = true
	return nil
}
