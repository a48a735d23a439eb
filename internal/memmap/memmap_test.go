package memmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRegions(t *testing.T) {
	cases := []struct {
		name   string
		addr   uint32
		region Region
		offset uint32
	}{
		{"bios start", 0x0000_0000, BIOS, 0},
		{"bios end", 0x0000_3FFF, BIOS, 0x3FFF},
		{"ewram", 0x0200_1234, OnBoardWRAM, 0x1234},
		{"iwram", 0x0300_0010, OnChipWRAM, 0x10},
		{"io", 0x0400_0006, IO, 6},
		{"palette", 0x0500_0002, Palette, 2},
		{"vram", 0x0600_0000, VRAM, 0},
		{"oam", 0x0700_0010, OAM, 0x10},
		{"rom mirror 0", 0x0800_0000, GamePakROM, 0},
		{"rom mirror 1", 0x0A00_0004, GamePakROM, 4},
		{"rom mirror 2", 0x0C00_0008, GamePakROM, 8},
		{"sram", 0x0E00_0000, GamePakSRAM, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.addr)
			require.Equal(t, tc.region, c.Region)
			assert.Equal(t, tc.offset, c.Offset)
		})
	}
}

func TestClassifyInvalid(t *testing.T) {
	c := Classify(0x0100_0000)
	assert.Equal(t, Invalid, c.Region)
	assert.Equal(t, uint32(0x0100_0000), c.Offset)
}

func TestWidthRestrictions(t *testing.T) {
	sram := Classify(0x0E00_0000)
	assert.True(t, sram.AllowsRead(8))
	assert.False(t, sram.AllowsRead(16))
	assert.False(t, sram.AllowsRead(32))
	assert.False(t, sram.AllowsWrite(16))

	pal := Classify(0x0500_0000)
	assert.False(t, pal.AllowsRead(8))
	assert.True(t, pal.AllowsRead(16))
	assert.True(t, pal.AllowsRead(32))

	bios := Classify(0x0000_0000)
	assert.True(t, bios.AllowsRead(32))
	assert.Equal(t, widthSet(0), bios.WriteWidths)
}

func TestIsROM(t *testing.T) {
	assert.True(t, Classify(0x0000_0000).IsROM())
	assert.True(t, Classify(0x0800_0000).IsROM())
	assert.False(t, Classify(0x0200_0000).IsROM())
}

func TestRegionString(t *testing.T) {
	assert.Equal(t, "SRAM", GamePakSRAM.String())
	assert.Equal(t, "INVALID", Invalid.String())
}
