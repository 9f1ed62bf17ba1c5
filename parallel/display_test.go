package parallel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/displays"
)

// fakeBus8 records every word asserted on the data lines.
type fakeBus8 struct {
	trace  *[]string
	values []uint8
	fail   error
}

func (b *fakeBus8) SetValue(value uint8) error {
	if b.fail != nil {
		return fmt.Errorf("%w: %w", displays.ErrBusWrite, b.fail)
	}
	b.values = append(b.values, value)
	if b.trace != nil {
		*b.trace = append(*b.trace, fmt.Sprintf("bus=0x%02X", value))
	}
	return nil
}

type fakeBus16 struct {
	values []uint16
}

func (b *fakeBus16) SetValue(value uint16) error {
	b.values = append(b.values, value)
	return nil
}

type unknownFormat struct {
	displays.U8
}

func newTestDisplay8(trace *[]string, opts ...Opt) (*Display8, *fakeBus8, *testPin, *testPin, *testPin) {
	bus := &fakeBus8{trace: trace}
	dc := &testPin{name: "dc", trace: trace}
	cs := &testPin{name: "cs", trace: trace}
	wr := &testPin{name: "wr", trace: trace}
	return NewDisplay8(bus, dc, cs, wr, opts...), bus, dc, cs, wr
}

func TestDisplay8_CommandTrace(t *testing.T) {
	var trace []string
	d, _, _, _, _ := newTestDisplay8(&trace)

	err := d.SendCommands(context.Background(), displays.U8{0xAE})

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"cs=Low", "dc=Low",
		"bus=0xAE", "wr=Low", "wr=High",
		"cs=High",
	}, trace)
}

func TestDisplay8_DataTrace(t *testing.T) {
	var trace []string
	d, _, _, _, _ := newTestDisplay8(&trace)

	err := d.SendData(context.Background(), displays.U8{0x01, 0x02})

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"cs=Low", "dc=High",
		"bus=0x01", "wr=Low", "wr=High",
		"bus=0x02", "wr=Low", "wr=High",
		"cs=High",
	}, trace)
}

func TestDisplay8_StrobePerWord(t *testing.T) {
	var trace []string
	d, bus, _, _, _ := newTestDisplay8(&trace)
	payload := []byte{0x10, 0x20, 0x30, 0x40, 0x50}

	err := d.SendData(context.Background(), displays.U8Iter(slices.Values(payload)))

	assert.NoError(t, err)
	assert.Equal(t, payload, bus.values)
	strobes := 0
	for _, event := range trace {
		if event == "wr=Low" {
			strobes++
		}
	}
	assert.Equal(t, len(payload), strobes, "one write strobe per word")
}

func TestDisplay8_EmptyPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload displays.DataFormat
	}{
		{"u8", displays.U8{}},
		{"u8 stream", displays.U8Iter(slices.Values([]byte{}))},
		{"u16 big endian", displays.U16BE{}},
		{"u16 little endian", displays.U16LE{}},
		{"u16 big endian stream", displays.U16BEIter(slices.Values([]uint16{}))},
		{"u16 little endian stream", displays.U16LEIter(slices.Values([]uint16{}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trace []string
			d, bus, _, _, _ := newTestDisplay8(&trace)

			err := d.SendCommands(context.Background(), tt.payload)

			assert.NoError(t, err)
			assert.Equal(t, []string{"cs=Low", "dc=Low", "cs=High"}, trace,
				"no bus value and no strobe without words")
			assert.Empty(t, bus.values)
		})
	}
}

func TestDisplay8_WordSplitting(t *testing.T) {
	words := []uint16{0x1234, 0xABCD}
	tests := []struct {
		name     string
		payload  displays.DataFormat
		expected []uint8
	}{
		{"u16 big endian", displays.U16BE(words), []uint8{0x12, 0x34, 0xAB, 0xCD}},
		{"u16 little endian", displays.U16LE(words), []uint8{0x34, 0x12, 0xCD, 0xAB}},
		{"u16 big endian stream", displays.U16BEIter(slices.Values(words)), []uint8{0x12, 0x34, 0xAB, 0xCD}},
		{"u16 little endian stream", displays.U16LEIter(slices.Values(words)), []uint8{0x34, 0x12, 0xCD, 0xAB}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, bus, _, _, _ := newTestDisplay8(nil)

			err := d.SendData(context.Background(), tt.payload)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, bus.values)
		})
	}
}

func TestDisplay8_ErrorMapping(t *testing.T) {
	cause := errors.New("line fault")
	tests := []struct {
		name     string
		setup    func(bus *fakeBus8, dc, cs, wr *testPin)
		expected error
	}{
		{
			name:     "dc failure",
			setup:    func(bus *fakeBus8, dc, cs, wr *testPin) { dc.fail = cause },
			expected: displays.ErrDCLine,
		},
		{
			name:     "cs failure",
			setup:    func(bus *fakeBus8, dc, cs, wr *testPin) { cs.fail = cause },
			expected: displays.ErrCSLine,
		},
		{
			name:     "strobe failure",
			setup:    func(bus *fakeBus8, dc, cs, wr *testPin) { wr.fail = cause },
			expected: displays.ErrBusWrite,
		},
		{
			name:     "bus failure",
			setup:    func(bus *fakeBus8, dc, cs, wr *testPin) { bus.fail = cause },
			expected: displays.ErrBusWrite,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, bus, dc, cs, wr := newTestDisplay8(nil)
			tt.setup(bus, dc, cs, wr)

			err := d.SendCommands(context.Background(), displays.U8{0xAE})

			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestDisplay8_UnknownFormat(t *testing.T) {
	d, bus, _, _, _ := newTestDisplay8(nil)

	err := d.SendData(context.Background(), unknownFormat{displays.U8{0x01}})

	assert.ErrorIs(t, err, displays.ErrFormatNotSupported)
	assert.Empty(t, bus.values)
}

func TestDisplay8_Reset(t *testing.T) {
	var trace []string
	rst := &testPin{name: "rst", trace: &trace}
	d, _, _, _, _ := newTestDisplay8(&trace, WithResetLine(rst), WithResetHold(time.Millisecond))

	err := d.Reset(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"rst=Low", "rst=High"}, trace)
}

func TestDisplay8_ResetErrors(t *testing.T) {
	t.Run("no reset line configured", func(t *testing.T) {
		d, _, _, _, _ := newTestDisplay8(nil)

		err := d.Reset(context.Background())

		assert.ErrorIs(t, err, displays.ErrResetLine)
	})
	t.Run("line failure", func(t *testing.T) {
		cause := errors.New("line fault")
		rst := &testPin{name: "rst", fail: cause}
		d, _, _, _, _ := newTestDisplay8(nil, WithResetLine(rst), WithResetHold(time.Millisecond))

		err := d.Reset(context.Background())

		assert.ErrorIs(t, err, displays.ErrResetLine)
		assert.ErrorIs(t, err, cause)
	})
	t.Run("cancelled during hold", func(t *testing.T) {
		rst := &testPin{name: "rst"}
		d, _, _, _, _ := newTestDisplay8(nil, WithResetLine(rst), WithResetHold(time.Minute))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := d.Reset(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDisplay8_Release(t *testing.T) {
	rst := &testPin{name: "rst"}
	d, bus, dc, cs, wr := newTestDisplay8(nil, WithResetLine(rst))

	gotBus, gotDC, gotCS, gotWR, gotRST := d.Release()

	assert.Same(t, bus, gotBus)
	assert.Same(t, dc, gotDC)
	assert.Same(t, cs, gotCS)
	assert.Same(t, wr, gotWR)
	assert.Same(t, rst, gotRST)
}

func TestDisplay16_WordsPassThrough(t *testing.T) {
	words := []uint16{0x1234, 0xABCD}
	tests := []struct {
		name    string
		payload displays.DataFormat
	}{
		{"u16 big endian", displays.U16BE(words)},
		{"u16 little endian", displays.U16LE(words)},
		{"u16 big endian stream", displays.U16BEIter(slices.Values(words))},
		{"u16 little endian stream", displays.U16LEIter(slices.Values(words))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(fakeBus16)
			d := NewDisplay16(bus, &testPin{name: "dc"}, &testPin{name: "cs"}, &testPin{name: "wr"})

			err := d.SendData(context.Background(), tt.payload)

			assert.NoError(t, err)
			assert.Equal(t, words, bus.values, "full words go out regardless of byte order tag")
		})
	}
}

func TestDisplay16_BytesWidened(t *testing.T) {
	bus := new(fakeBus16)
	d := NewDisplay16(bus, &testPin{name: "dc"}, &testPin{name: "cs"}, &testPin{name: "wr"})

	err := d.SendCommands(context.Background(), displays.U8{0xAE, 0x01})

	assert.NoError(t, err)
	assert.Equal(t, []uint16{0x00AE, 0x0001}, bus.values)
}

func TestDisplay16_Release(t *testing.T) {
	bus := new(fakeBus16)
	dc := &testPin{name: "dc"}
	cs := &testPin{name: "cs"}
	wr := &testPin{name: "wr"}
	d := NewDisplay16(bus, dc, cs, wr)

	gotBus, gotDC, gotCS, gotWR, gotRST := d.Release()

	assert.Same(t, bus, gotBus)
	assert.Same(t, dc, gotDC)
	assert.Same(t, cs, gotCS)
	assert.Same(t, wr, gotWR)
	assert.Nil(t, gotRST)
}
