// Package errs defines the closed set of error kinds the core can raise.
//
// Every error implements the standard error interface and can be
// discriminated with errors.As against the concrete types below. The core
// never logs or retries; callers are expected to treat any of these as fatal
// to the current Step and inspect a CPU snapshot (see spec section 7).
package errs

import "fmt"

// InvalidArmInstruction is raised when no ARM decode pattern matches a word.
type InvalidArmInstruction struct {
	Word uint32
}

func (e *InvalidArmInstruction) Error() string {
	return fmt.Sprintf("invalid ARM instruction: %#08x", e.Word)
}

// InvalidThumbInstruction is raised when no THUMB decode pattern matches a
// halfword, including the explicitly-rejected BAL encoding.
type InvalidThumbInstruction struct {
	Half uint16
}

func (e *InvalidThumbInstruction) Error() string {
	return fmt.Sprintf("invalid THUMB instruction: %#04x", e.Half)
}

// ReservedCondition is raised when execution reaches condition code NV
// (0b1111).
type ReservedCondition struct{}

func (e *ReservedCondition) Error() string { return "reserved condition code NV (0b1111)" }

// InvalidPhysicalAddress is raised by the bus for an access to an address
// outside every named region.
type InvalidPhysicalAddress struct {
	Addr uint32
}

func (e *InvalidPhysicalAddress) Error() string {
	return fmt.Sprintf("invalid physical address: %#08x", e.Addr)
}

// InvalidRomAccess is raised on a write to a ROM region (BIOS or GamePak
// ROM).
type InvalidRomAccess struct {
	Addr uint32
}

func (e *InvalidRomAccess) Error() string {
	return fmt.Sprintf("invalid write to ROM at %#08x", e.Addr)
}

// InvalidMemoryBusWidth is raised when a region is accessed at a width it
// does not support (e.g. 16- or 32-bit access to GamePak SRAM).
type InvalidMemoryBusWidth struct {
	Addr  uint32
	Width int
}

func (e *InvalidMemoryBusWidth) Error() string {
	return fmt.Sprintf("invalid %d-bit bus access at %#08x", e.Width, e.Addr)
}

// InvalidUseOfR15 is raised when a decoded instruction uses R15 (PC) in a
// position the architecture forbids.
type InvalidUseOfR15 struct {
	Reason string
}

func (e *InvalidUseOfR15) Error() string {
	return fmt.Sprintf("invalid use of r15: %s", e.Reason)
}

// InvalidRegisterReuse is raised for MUL with Rd==Rm, or for the analogous
// register collisions in long multiply.
type InvalidRegisterReuse struct {
	RdHi, RdLo, Rs, Rm uint8
}

func (e *InvalidRegisterReuse) Error() string {
	return fmt.Sprintf("invalid register reuse: RdHi=r%d RdLo=r%d Rs=r%d Rm=r%d",
		e.RdHi, e.RdLo, e.Rs, e.Rm)
}

// InvalidOffsetWriteBack is raised when the write-back bit is combined with
// an addressing mode that forbids it (post-indexed halfword transfer, or
// LDM/STM with the user-bank force bit).
type InvalidOffsetWriteBack struct {
	Reason string
}

func (e *InvalidOffsetWriteBack) Error() string {
	return fmt.Sprintf("invalid offset write-back: %s", e.Reason)
}

// PrivilegedUserCode is raised when User-mode code attempts an SPSR access
// or another form reserved for privileged modes.
type PrivilegedUserCode struct {
	Reason string
}

func (e *PrivilegedUserCode) Error() string {
	return fmt.Sprintf("privileged operation attempted from user mode: %s", e.Reason)
}

// InvalidPsrMode is raised when a PSR's mode field holds a bit pattern that
// is not one of the seven legal modes.
type InvalidPsrMode struct {
	Bits uint32
}

func (e *InvalidPsrMode) Error() string {
	return fmt.Sprintf("invalid PSR mode bits: %#07b", e.Bits)
}
