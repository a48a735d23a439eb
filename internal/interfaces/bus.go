// Package interfaces holds the narrow consumer interfaces the core depends
// on, following the teacher's internal/interfaces convention of decoupling
// the CPU from concrete bus/memory implementations.
package interfaces

// Bus is the memory interface consumed by the core (spec section 6). All
// errors returned are members of the closed taxonomy in internal/errs.
type Bus interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, v uint8) error
	Write16(addr uint32, v uint16) error
	Write32(addr uint32, v uint32) error
}
