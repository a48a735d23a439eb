package memory

const (
	BIOSSize    = 16 * 1024
	EWRAMSize   = 256 * 1024
	IWRAMSize   = 32 * 1024
	IOSize      = 1024
	PaletteSize = 1024
	VRAMSize    = 96 * 1024
	OAMSize     = 1024
	SRAMSize    = 64 * 1024
)

// Banks owns every backing store named in spec section 3. It is created
// once and lives for the emulator's lifetime; ROM and BIOS are loaded once
// up front and never written through the bus, while every other store can
// be written during execution.
type Banks struct {
	BIOS    *Store
	EWRAM   *Store
	IWRAM   *Store
	IO      *Store
	Palette *Store
	VRAM    *Store
	OAM     *Store
	ROM     *ROM
	SRAM    *Store
}

// NewBanks allocates zeroed backing stores for every region. LoadBIOS and
// LoadROM populate the two ROM-backed stores; everything else starts zero,
// matching spec section 3's "registers are zero on construction" lifecycle
// rule (extended here to memory, since the GBA's WRAM is not guaranteed to
// be zeroed by real hardware but a fresh emulator instance has no other
// sensible default).
func NewBanks() *Banks {
	return &Banks{
		BIOS:    NewStore(BIOSSize),
		EWRAM:   NewStore(EWRAMSize),
		IWRAM:   NewStore(IWRAMSize),
		IO:      NewStore(IOSize),
		Palette: NewStore(PaletteSize),
		VRAM:    NewStore(VRAMSize),
		OAM:     NewStore(OAMSize),
		ROM:     NewROM(nil),
		SRAM:    NewStore(SRAMSize),
	}
}

// LoadBIOS installs a BIOS image. Images shorter than BIOSSize are zero
// padded at the tail; longer images are truncated. Parsing a GamePak header
// or reading the image from disk is out of scope for this package (spec
// section 1): callers hand in already-read bytes.
func (b *Banks) LoadBIOS(image []byte) {
	b.BIOS = NewStoreFromBytes(image, BIOSSize)
}

// LoadROM installs a GamePak ROM image, addressable identically through all
// three wait-state mirrors (spec section 4.1).
func (b *Banks) LoadROM(image []byte) {
	b.ROM = NewROM(image)
}

// ROM wraps a GamePak ROM image so that all three wait-state mirrors
// (0x08000000, 0x0A000000, 0x0C000000) address the same underlying bytes,
// per spec section 4.1. The mirror window is 32 MiB regardless of the
// actual cartridge size; offsets beyond the image length wrap modulo the
// image length, the same open-bus-adjacent convention the teacher's
// Cartridge.ReadROM8 assumes for an undersized image.
type ROM struct {
	data []byte
}

// NewROM wraps image, treating a nil or empty image as an absent cartridge
// (every read returns 0).
func NewROM(image []byte) *ROM {
	return &ROM{data: image}
}

func (r *ROM) Len() int { return len(r.data) }

func (r *ROM) mirrorOffset(offset uint32) (uint32, bool) {
	if len(r.data) == 0 {
		return 0, false
	}
	return offset % uint32(len(r.data)), true
}

func (r *ROM) Read8(offset uint32) uint8 {
	o, ok := r.mirrorOffset(offset)
	if !ok {
		return 0
	}
	return r.data[o]
}

func (r *ROM) Read16(offset uint32) uint16 {
	o, ok := r.mirrorOffset(offset)
	if !ok {
		return 0
	}
	lo := uint16(r.data[o])
	var hi uint16
	if int(o)+1 < len(r.data) {
		hi = uint16(r.data[o+1])
	} else if o2, ok2 := r.mirrorOffset(offset + 1); ok2 {
		hi = uint16(r.data[o2])
	}
	return lo | hi<<8
}

func (r *ROM) Read32(offset uint32) uint32 {
	b0 := uint32(r.Read8(offset))
	b1 := uint32(r.Read8(offset + 1))
	b2 := uint32(r.Read8(offset + 2))
	b3 := uint32(r.Read8(offset + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}
