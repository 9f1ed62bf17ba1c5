package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteFrame(t *testing.T) {
	frame := make([]byte, reportSize)

	writeFrame(frame, 0x3C, 3, []byte{0x40, 0x01, 0x02})

	assert.Equal(t, byte(cmdI2CWriteData), frame[0])
	assert.Equal(t, []byte{0x03, 0x00}, frame[1:3], "transfer length is little endian")
	assert.Equal(t, byte(0x78), frame[3], "7-bit address shifted to write form")
	assert.Equal(t, []byte{0x40, 0x01, 0x02}, frame[4:7])
}

func TestWriteFrame_ChunkedTransfer(t *testing.T) {
	frame := make([]byte, reportSize)
	chunk := make([]byte, 10)

	// a later chunk of a 100-byte transfer still declares the full length
	writeFrame(frame, 0x3C, 100, chunk)

	assert.Equal(t, []byte{100, 0x00}, frame[1:3])
}

func TestBufferToStatus(t *testing.T) {
	buffer := make([]byte, reportSize)
	buffer[9], buffer[10] = 0x02, 0x01
	buffer[11], buffer[12] = 0x01, 0x01
	buffer[13] = 42
	buffer[14] = 0x75
	buffer[15] = 0x08
	buffer[16], buffer[17] = 0x78, 0x00

	status := bufferToStatus(buffer)

	assert.Equal(t, uint16(0x0102), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(0x0101), status.LastWriteSentSize)
	assert.Equal(t, 42, status.I2CDataBufferCounter)
	assert.Equal(t, 0x75, status.I2CSpeedDivider)
	assert.Equal(t, 0x08, status.I2CTimeout)
	assert.Equal(t, "7800", status.CurrentAddress)
}
