package spi

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/displays"
)

var _ displays.BusWriter = &GenericPort{}

// GenericPort exposes a periph.io SPI port as a display transport. The port
// owns chip select, so displays built on top of it should not be given a
// chip select line of their own.
type GenericPort struct {
	port spi.PortCloser
	conn spi.Conn
}

// NewGenericPort opens the SPI port registered under dev and configures it
// for display traffic (mode 0, 8-bit words) at the given speed.
func NewGenericPort(dev string, speed physic.Frequency) (*GenericPort, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not configure spi port: %w", err)
	}
	return &GenericPort{
		port: port,
		conn: conn,
	}, nil
}

func (p *GenericPort) Write(ctx context.Context, buffer []byte) error {
	err := p.conn.Tx(buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to spi port: %w", err)
	}
	return nil
}

func (p *GenericPort) Close() error {
	return p.port.Close()
}
