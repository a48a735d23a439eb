// Package bus dispatches typed, width-specific accesses to the backing
// store selected by internal/memmap, enforcing each region's legal widths
// and read/write rules (spec section 4.2).
package bus

import (
	"math/bits"

	"goba/internal/errs"
	"goba/internal/memmap"
	"goba/internal/memory"
)

// Bus implements internal/interfaces.Bus over a set of fixed backing
// stores. It holds no logic of its own beyond address classification and
// width/rule enforcement; PPU, DMA, timers, keypad and the interrupt
// controller are external collaborators reached through other paths, not
// through Bus (spec section 1).
type Bus struct {
	Banks *memory.Banks
}

// New creates a Bus over the given backing stores.
func New(banks *memory.Banks) *Bus {
	return &Bus{Banks: banks}
}

func (b *Bus) classify(addr uint32, width int, write bool) (memmap.Classification, error) {
	c := memmap.Classify(addr)
	if c.Region == memmap.Invalid {
		return c, &errs.InvalidPhysicalAddress{Addr: addr}
	}
	if write {
		if c.Region == memmap.BIOS || c.Region == memmap.GamePakROM {
			return c, &errs.InvalidRomAccess{Addr: addr}
		}
		if !c.AllowsWrite(width) {
			return c, &errs.InvalidMemoryBusWidth{Addr: addr, Width: width}
		}
	} else if !c.AllowsRead(width) {
		return c, &errs.InvalidMemoryBusWidth{Addr: addr, Width: width}
	}
	return c, nil
}

// Read8 reads a single byte. Palette RAM, VRAM and OAM reject 8-bit access
// with InvalidMemoryBusWidth; SRAM is the only region permitted *only*
// 8-bit access.
func (b *Bus) Read8(addr uint32) (uint8, error) {
	c, err := b.classify(addr, 8, false)
	if err != nil {
		return 0, err
	}
	return b.read8(c), nil
}

func (b *Bus) read8(c memmap.Classification) uint8 {
	switch c.Region {
	case memmap.BIOS:
		return b.Banks.BIOS.Read8(c.Offset)
	case memmap.OnBoardWRAM:
		return b.Banks.EWRAM.Read8(c.Offset)
	case memmap.OnChipWRAM:
		return b.Banks.IWRAM.Read8(c.Offset)
	case memmap.IO:
		return b.Banks.IO.Read8(c.Offset)
	case memmap.Palette:
		return b.Banks.Palette.Read8(c.Offset)
	case memmap.VRAM:
		return b.Banks.VRAM.Read8(c.Offset)
	case memmap.OAM:
		return b.Banks.OAM.Read8(c.Offset)
	case memmap.GamePakROM:
		return b.Banks.ROM.Read8(c.Offset)
	case memmap.GamePakSRAM:
		return b.Banks.SRAM.Read8(c.Offset)
	default:
		return 0
	}
}

// Write8 writes a single byte, rejecting ROM targets and regions that do
// not support 8-bit writes.
func (b *Bus) Write8(addr uint32, v uint8) error {
	c, err := b.classify(addr, 8, true)
	if err != nil {
		return err
	}
	switch c.Region {
	case memmap.OnBoardWRAM:
		b.Banks.EWRAM.Write8(c.Offset, v)
	case memmap.OnChipWRAM:
		b.Banks.IWRAM.Write8(c.Offset, v)
	case memmap.IO:
		b.Banks.IO.Write8(c.Offset, v)
	case memmap.Palette:
		b.Banks.Palette.Write8(c.Offset, v)
	case memmap.VRAM:
		b.Banks.VRAM.Write8(c.Offset, v)
	case memmap.OAM:
		b.Banks.OAM.Write8(c.Offset, v)
	case memmap.GamePakSRAM:
		b.Banks.SRAM.Write8(c.Offset, v)
	}
	return nil
}

// Read16 reads a little-endian halfword. Halfword reads from an odd
// address are implementation-defined but must not fault (spec section
// 4.2): this implementation rounds the address down to the natural
// halfword boundary, matching the rounding rule spelled out for writes.
func (b *Bus) Read16(addr uint32) (uint16, error) {
	aligned := addr &^ 1
	c, err := b.classify(aligned, 16, false)
	if err != nil {
		return 0, err
	}
	return b.read16(c), nil
}

func (b *Bus) read16(c memmap.Classification) uint16 {
	switch c.Region {
	case memmap.BIOS:
		return b.Banks.BIOS.Read16(c.Offset)
	case memmap.OnBoardWRAM:
		return b.Banks.EWRAM.Read16(c.Offset)
	case memmap.OnChipWRAM:
		return b.Banks.IWRAM.Read16(c.Offset)
	case memmap.IO:
		return b.Banks.IO.Read16(c.Offset)
	case memmap.Palette:
		return b.Banks.Palette.Read16(c.Offset)
	case memmap.VRAM:
		return b.Banks.VRAM.Read16(c.Offset)
	case memmap.OAM:
		return b.Banks.OAM.Read16(c.Offset)
	case memmap.GamePakROM:
		return b.Banks.ROM.Read16(c.Offset)
	default:
		// SRAM only allows 8-bit access; classify rejected it above.
		return 0
	}
}

// Write16 writes a little-endian halfword, rounding the address down to
// the natural halfword boundary.
func (b *Bus) Write16(addr uint32, v uint16) error {
	aligned := addr &^ 1
	c, err := b.classify(aligned, 16, true)
	if err != nil {
		return err
	}
	switch c.Region {
	case memmap.OnBoardWRAM:
		b.Banks.EWRAM.Write16(c.Offset, v)
	case memmap.OnChipWRAM:
		b.Banks.IWRAM.Write16(c.Offset, v)
	case memmap.IO:
		b.Banks.IO.Write16(c.Offset, v)
	case memmap.Palette:
		b.Banks.Palette.Write16(c.Offset, v)
	case memmap.VRAM:
		b.Banks.VRAM.Write16(c.Offset, v)
	case memmap.OAM:
		b.Banks.OAM.Write16(c.Offset, v)
	}
	return nil
}

// Read32 reads a little-endian word. A read whose low two address bits are
// non-zero returns the word at addr&^3, rotated right by 8*(addr&3) bits
// (spec section 4.2 and the worked example in section 8, scenario 3).
func (b *Bus) Read32(addr uint32) (uint32, error) {
	aligned := addr &^ 3
	c, err := b.classify(aligned, 32, false)
	if err != nil {
		return 0, err
	}
	word := b.read32(c)
	rotate := 8 * (addr & 3)
	return bits.RotateLeft32(word, -int(rotate)), nil
}

func (b *Bus) read32(c memmap.Classification) uint32 {
	switch c.Region {
	case memmap.BIOS:
		return b.Banks.BIOS.Read32(c.Offset)
	case memmap.OnBoardWRAM:
		return b.Banks.EWRAM.Read32(c.Offset)
	case memmap.OnChipWRAM:
		return b.Banks.IWRAM.Read32(c.Offset)
	case memmap.IO:
		return b.Banks.IO.Read32(c.Offset)
	case memmap.Palette:
		return b.Banks.Palette.Read32(c.Offset)
	case memmap.VRAM:
		return b.Banks.VRAM.Read32(c.Offset)
	case memmap.OAM:
		return b.Banks.OAM.Read32(c.Offset)
	case memmap.GamePakROM:
		return b.Banks.ROM.Read32(c.Offset)
	default:
		// SRAM only allows 8-bit access; classify rejected it above.
		return 0
	}
}

// Write32 writes a little-endian word, rounding the address down to the
// natural word boundary.
func (b *Bus) Write32(addr uint32, v uint32) error {
	aligned := addr &^ 3
	c, err := b.classify(aligned, 32, true)
	if err != nil {
		return err
	}
	switch c.Region {
	case memmap.OnBoardWRAM:
		b.Banks.EWRAM.Write32(c.Offset, v)
	case memmap.OnChipWRAM:
		b.Banks.IWRAM.Write32(c.Offset, v)
	case memmap.IO:
		b.Banks.IO.Write32(c.Offset, v)
	case memmap.Palette:
		b.Banks.Palette.Write32(c.Offset, v)
	case memmap.VRAM:
		b.Banks.VRAM.Write32(c.Offset, v)
	case memmap.OAM:
		b.Banks.OAM.Write32(c.Offset, v)
	}
	return nil
}
