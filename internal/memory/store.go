// Package memory implements the fixed-size backing stores named in spec
// section 3 ("Backing stores"): plain byte arrays with little-endian
// width-specific accessors. A Store has no notion of the physical address
// map; it only knows its own region-local offsets, handed to it already
// resolved by internal/memmap via the bus.
package memory

import "encoding/binary"

// Store is a byte-addressed backing store of fixed size, read/written at
// byte, halfword, or word granularity in little-endian order. All widths
// are supported mechanically; whether a given region legally permits a
// width or a write at all is a bus-level (memmap) concern, not the store's.
type Store struct {
	data []byte
}

// NewStore allocates a zeroed store of the given size in bytes.
func NewStore(size int) *Store {
	return &Store{data: make([]byte, size)}
}

// NewStoreFromBytes wraps existing data as a store, copying it in. Extra
// capacity up to size is zero-filled; data longer than size is truncated.
func NewStoreFromBytes(data []byte, size int) *Store {
	s := &Store{data: make([]byte, size)}
	copy(s.data, data)
	return s
}

// Len returns the size of the store in bytes.
func (s *Store) Len() int { return len(s.data) }

// Bytes returns the store's backing slice directly, for callers (such as
// GamePak ROM loading) that need to populate it in bulk.
func (s *Store) Bytes() []byte { return s.data }

func (s *Store) Read8(offset uint32) uint8 {
	return s.data[offset]
}

func (s *Store) Write8(offset uint32, v uint8) {
	s.data[offset] = v
}

// Read16 reads a little-endian halfword. The caller is responsible for any
// alignment policy; offset is used as given (odd offsets simply read across
// a byte boundary).
func (s *Store) Read16(offset uint32) uint16 {
	if int(offset)+2 > len(s.data) {
		return uint16(s.data[offset])
	}
	return binary.LittleEndian.Uint16(s.data[offset : offset+2])
}

func (s *Store) Write16(offset uint32, v uint16) {
	if int(offset)+2 > len(s.data) {
		s.data[offset] = uint8(v)
		return
	}
	binary.LittleEndian.PutUint16(s.data[offset:offset+2], v)
}

// Read32 reads a little-endian word at offset, which must be word-aligned;
// alignment rotation (spec section 4.2) is applied by the bus, not here.
func (s *Store) Read32(offset uint32) uint32 {
	if int(offset)+4 > len(s.data) {
		var buf [4]byte
		copy(buf[:], s.data[offset:])
		return binary.LittleEndian.Uint32(buf[:])
	}
	return binary.LittleEndian.Uint32(s.data[offset : offset+4])
}

func (s *Store) Write32(offset uint32, v uint32) {
	if int(offset)+4 > len(s.data) {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], v)
		copy(s.data[offset:], buf[:])
		return
	}
	binary.LittleEndian.PutUint32(s.data[offset:offset+4], v)
}
