package spi

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2"

	"github.com/mklimuk/displays"
)

var _ displays.BusWriter = &GobotWriter{}

// GobotWriter adapts a Gobot SPI connection to the display transport. Only
// the write path is used; chip select stays with the Gobot adaptor.
type GobotWriter struct {
	conn gobot.Connection
}

// NewGobotWriter wraps the connection of a started gobot spi.Driver, as
// returned by its Connection method.
func NewGobotWriter(conn gobot.Connection) *GobotWriter {
	return &GobotWriter{conn: conn}
}

func (w *GobotWriter) Write(ctx context.Context, buffer []byte) error {
	// not every Gobot connection exposes raw writes, probe for the subset we need
	ops, ok := w.conn.(interface{ WriteBytes(data []byte) error })
	if !ok {
		return fmt.Errorf("spi connection does not support raw writes")
	}
	if len(buffer) == 0 {
		return nil
	}
	err := ops.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to spi connection: %w", err)
	}
	return nil
}
