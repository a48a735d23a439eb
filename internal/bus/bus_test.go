package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goba/internal/errs"
	"goba/internal/memory"
)

func newTestBus() *Bus {
	return New(memory.NewBanks())
}

func TestByteRoundTrip(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Write8(0x0300_0000, 0xAB))
	v, err := b.Read8(0x0300_0000)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)
}

func TestWordRoundTripAligned(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Write32(0x0200_0000, 0xDEADBEEF))
	v, err := b.Read32(0x0200_0000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestWordReadMisalignedRotates(t *testing.T) {
	b := newTestBus()
	// bytes AA BB CC DD little-endian at 0x0300_0000 => word 0xDDCCBBAA
	require.NoError(t, b.Write8(0x0300_0000, 0xAA))
	require.NoError(t, b.Write8(0x0300_0001, 0xBB))
	require.NoError(t, b.Write8(0x0300_0002, 0xCC))
	require.NoError(t, b.Write8(0x0300_0003, 0xDD))

	v, err := b.Read32(0x0300_0002)
	require.NoError(t, err)
	// rotate_right(0xDDCCBBAA, 16) == 0xBBAADDCC
	assert.Equal(t, uint32(0xBBAA_DDCC), v)
}

func TestRomWriteRejected(t *testing.T) {
	b := newTestBus()
	err := b.Write8(0x0800_0000, 1)
	require.Error(t, err)
	var romErr *errs.InvalidRomAccess
	assert.True(t, errors.As(err, &romErr))
}

func TestSRAMWidthRestriction(t *testing.T) {
	b := newTestBus()
	_, err := b.Read16(0x0E00_0000)
	require.Error(t, err)
	var widthErr *errs.InvalidMemoryBusWidth
	require.True(t, errors.As(err, &widthErr))
	assert.Equal(t, 16, widthErr.Width)
}

func TestInvalidAddress(t *testing.T) {
	b := newTestBus()
	_, err := b.Read8(0x0100_0000)
	require.Error(t, err)
	var addrErr *errs.InvalidPhysicalAddress
	assert.True(t, errors.As(err, &addrErr))
}

func TestHalfwordOddAddressDoesNotFault(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Write16(0x0200_0010, 0x1234))
	v, err := b.Read16(0x0200_0011)
	require.NoError(t, err)
	// odd address rounds down to the halfword boundary rather than faulting
	assert.Equal(t, uint16(0x1234), v)
}

func TestGamePakROMMirrorsShareData(t *testing.T) {
	banks := memory.NewBanks()
	banks.LoadROM([]byte{0x11, 0x22, 0x33, 0x44})
	b := New(banks)
	v0, err := b.Read32(0x0800_0000)
	require.NoError(t, err)
	v1, err := b.Read32(0x0A00_0000)
	require.NoError(t, err)
	v2, err := b.Read32(0x0C00_0000)
	require.NoError(t, err)
	assert.Equal(t, v0, v1)
	assert.Equal(t, v0, v2)
}
