package gpio

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/displays"
)

// MockBus is a mock displays.AddressableWriter with a bus release hook.
type MockBus struct {
	mock.Mock
	writes [][]byte
}

func (m *MockBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	err := args.Error(0)
	if err == nil {
		m.writes = append(m.writes, slices.Clone(buffer))
	}
	return err
}

func (m *MockBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestMCP23017_InitOutput(t *testing.T) {
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(nil)
	expander := NewMCP23017(bus, 0x21)

	assert.NoError(t, expander.InitOutputA(context.Background()))
	assert.NoError(t, expander.InitOutputB(context.Background()))

	assert.Equal(t, [][]byte{{0x00, 0x00}, {0x01, 0x00}}, bus.writes)
}

func TestPortBus8_SetValue(t *testing.T) {
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(nil)
	expander := NewMCP23017(bus, 0x21)
	port := expander.PortA(context.Background())

	assert.NoError(t, port.SetValue(0xAE))
	assert.NoError(t, port.SetValue(0xAE))
	assert.NoError(t, port.SetValue(0x01))

	assert.Equal(t, [][]byte{{0x12, 0xAE}, {0x12, 0x01}}, bus.writes,
		"repeated values are skipped, port register carries the rest")
}

func TestPortBus8_PortBRegister(t *testing.T) {
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(nil)
	expander := NewMCP23017(bus, 0x21)
	port := expander.PortB(context.Background())

	assert.NoError(t, port.SetValue(0x55))

	assert.Equal(t, [][]byte{{0x13, 0x55}}, bus.writes)
}

func TestPortBus8_BusyRetry(t *testing.T) {
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(displays.ErrBusBusy).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(nil).Once()
	expander := NewMCP23017(bus, 0x21)
	port := expander.PortA(context.Background())

	err := port.SetValue(0xAE)

	assert.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestPortBus8_WriteFailure(t *testing.T) {
	cause := errors.New("transport down")
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(cause)
	expander := NewMCP23017(bus, 0x21)
	port := expander.PortA(context.Background())

	err := port.SetValue(0xAE)

	assert.ErrorIs(t, err, displays.ErrBusWrite)
	assert.ErrorIs(t, err, cause)
	bus.AssertNotCalled(t, "Release", mock.Anything)
}

func TestPortBus16_SetValue(t *testing.T) {
	bus := new(MockBus)
	bus.On("WriteToAddr", mock.Anything, byte(0x21), mock.Anything).Return(nil)
	expander := NewMCP23017(bus, 0x21)
	ports := expander.Ports(context.Background())

	assert.NoError(t, ports.SetValue(0x1234))

	assert.Equal(t, [][]byte{{0x12, 0x34, 0x12}}, bus.writes,
		"low byte goes to port A, high byte follows through the sequential pointer")
}
