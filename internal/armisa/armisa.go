// Package armisa decodes 32-bit ARM words into a typed instruction with
// field accessors (spec section 4.5). Classification is performed by
// testing fixed-position bit patterns in the specific order spec section
// 4.5 prescribes: several families (MRS, MSR, SWP, MUL...) are strict
// subsets of the generic data-processing encoding and must be recognised
// before it, which is why data processing is tried last and catches
// whatever remains (spec section 9, "Decoder ordering").
package armisa

import (
	"goba/internal/alu"
	"goba/internal/condition"
	"goba/internal/errs"
	"goba/internal/shifter"
)

// Family identifies one of the seventeen (plus residual data-processing)
// opcode groups named in spec section 4.5.
type Family uint8

const (
	FamilyBX Family = iota
	FamilyBranch
	FamilyUnknown
	FamilySWP
	FamilyMultiply
	FamilyMultiplyLong
	FamilyMRS
	FamilyMSRRegister
	FamilyMSRFlags
	FamilySingleDataTransfer
	FamilyHalfwordRegOffset
	FamilyHalfwordImmOffset
	FamilyBlockDataTransfer
	FamilySWI
	FamilyCDP
	FamilyCoprocRegTransfer // MRC/MCR
	FamilyCoprocDataTransfer // LDC/STC
	FamilyDataProcessing
)

// Instruction is a decoded 32-bit ARM word: the raw bits plus the family
// that was matched. Every field accessor reads directly from Raw, the same
// way the reference implementation's arminstruction module avoids one
// struct per family.
type Instruction struct {
	Raw    uint32
	Family Family
}

func bit(w uint32, n uint) bool       { return (w>>n)&1 != 0 }
func bitsOf(w uint32, hi, lo uint) uint32 {
	width := hi - lo + 1
	return (w >> lo) & ((1 << width) - 1)
}

// Decode classifies a 32-bit ARM word. With data processing as the final,
// catch-all family, every word decodes to some family; InvalidArmInstruction
// is reserved for the (architecturally unreachable, but checked defensively)
// case that none of the eighteen tests matches.
func Decode(word uint32) (Instruction, error) {
	switch {
	case isBX(word):
		return Instruction{word, FamilyBX}, nil
	case isBranch(word):
		return Instruction{word, FamilyBranch}, nil
	case isUndefined(word):
		return Instruction{word, FamilyUnknown}, nil
	case isSWP(word):
		return Instruction{word, FamilySWP}, nil
	case isMultiply(word):
		return Instruction{word, FamilyMultiply}, nil
	case isMultiplyLong(word):
		return Instruction{word, FamilyMultiplyLong}, nil
	case isMRS(word):
		return Instruction{word, FamilyMRS}, nil
	case isMSRRegister(word):
		return Instruction{word, FamilyMSRRegister}, nil
	case isMSRFlags(word):
		return Instruction{word, FamilyMSRFlags}, nil
	case isSingleDataTransfer(word):
		return Instruction{word, FamilySingleDataTransfer}, nil
	case isHalfwordRegOffset(word):
		return Instruction{word, FamilyHalfwordRegOffset}, nil
	case isHalfwordImmOffset(word):
		return Instruction{word, FamilyHalfwordImmOffset}, nil
	case isBlockDataTransfer(word):
		return Instruction{word, FamilyBlockDataTransfer}, nil
	case isSWI(word):
		return Instruction{word, FamilySWI}, nil
	case isCDP(word):
		return Instruction{word, FamilyCDP}, nil
	case isCoprocRegTransfer(word):
		return Instruction{word, FamilyCoprocRegTransfer}, nil
	case isCoprocDataTransfer(word):
		return Instruction{word, FamilyCoprocDataTransfer}, nil
	case isDataProcessing(word):
		return Instruction{word, FamilyDataProcessing}, nil
	default:
		return Instruction{}, &errs.InvalidArmInstruction{Word: word}
	}
}

// --- family predicates, tested in spec section 4.5 order ---

func isBX(w uint32) bool {
	return w&0x0FFF_FFF0 == 0x012F_FF10
}

func isBranch(w uint32) bool {
	return w&0x0E00_0000 == 0x0A00_0000
}

// isUndefined matches the ARMv4T reserved instruction space: bits 27-25 =
// 011 and bit 4 = 1 (the encoding later architectures use for media
// instructions).
func isUndefined(w uint32) bool {
	return w&0x0E00_0010 == 0x0600_0010
}

func isSWP(w uint32) bool {
	return w&0x0FB0_0FF0 == 0x0100_0090
}

func isMultiply(w uint32) bool {
	return w&0x0FC0_00F0 == 0x0000_0090
}

func isMultiplyLong(w uint32) bool {
	return w&0x0F80_00F0 == 0x0080_0090
}

func isMRS(w uint32) bool {
	return w&0x0FBF_0FFF == 0x010F_0000
}

// isMSRBase matches the bits common to every MSR encoding (register or
// immediate operand, to CPSR or SPSR, any field mask): bits 27-26 = 00,
// bits 24-23 = 10, bits 21-20 = 10 (the reserved S=0 slot of the
// TEQ/CMN-shaped data-processing space, per the ARM ARM), bits 15-12 =
// 1111. Bit 25 (I, operand form) and bit 22 (R, CPSR/SPSR) are free; bits
// 19-16 (the field mask) are deliberately not constrained to a fixed
// pattern, since any non-empty subset of the four field bits is a legal
// MSR (spec section 4.5, entries 8 and 9).
func isMSRBase(w uint32) bool {
	const mask = 0x0DB0_F000
	const value = 0x0120_F000
	return w&mask == value
}

// isMSRRegister matches the privileged form that writes the control byte
// (field-mask bit 16, "c") — including the mode field — from either
// operand form; this is the form that must route through the
// privilege-checked, mode-switching path (spec section 4.9).
func isMSRRegister(w uint32) bool {
	return isMSRBase(w) && bit(w, 16)
}

// isMSRFlags matches every MSR encoding that does not touch the control
// byte: flags-only writes to bits 31-28 (and/or the unused middle bytes),
// from either operand form (spec section 4.3's "flag-only"/"full" split).
func isMSRFlags(w uint32) bool {
	return isMSRBase(w) && !bit(w, 16)
}

func isSingleDataTransfer(w uint32) bool {
	return w&0x0C00_0000 == 0x0400_0000
}

func isHalfwordRegOffset(w uint32) bool {
	return w&0x0E40_0F90 == 0x0000_0090
}

func isHalfwordImmOffset(w uint32) bool {
	return w&0x0E40_0090 == 0x0040_0090
}

func isBlockDataTransfer(w uint32) bool {
	return w&0x0E00_0000 == 0x0800_0000
}

func isSWI(w uint32) bool {
	return w&0x0F00_0000 == 0x0F00_0000
}

func isCDP(w uint32) bool {
	return w&0x0F00_0010 == 0x0E00_0000
}

func isCoprocRegTransfer(w uint32) bool {
	return w&0x0F00_0010 == 0x0E00_0010
}

func isCoprocDataTransfer(w uint32) bool {
	return w&0x0E00_0000 == 0x0C00_0000
}

func isDataProcessing(w uint32) bool {
	return w&0x0C00_0000 == 0x0000_0000
}

// --- common field accessors ---

func (i Instruction) Condition() condition.Code { return condition.Code(bitsOf(i.Raw, 31, 28)) }

func (i Instruction) I() bool { return bit(i.Raw, 25) }
func (i Instruction) P() bool { return bit(i.Raw, 24) }
func (i Instruction) U() bool { return bit(i.Raw, 23) }
func (i Instruction) B() bool { return bit(i.Raw, 22) }
func (i Instruction) S() bool { return bit(i.Raw, 22) } // LDM/STM "S" bit shares bit 22 with B
func (i Instruction) W() bool { return bit(i.Raw, 21) }
func (i Instruction) L() bool { return bit(i.Raw, 20) }
func (i Instruction) A() bool { return bit(i.Raw, 21) } // MUL/MLA accumulate bit shares bit 21 with W
func (i Instruction) Sbit() bool { return bit(i.Raw, 20) } // DP set-condition-codes bit shares bit 20 with L

func (i Instruction) Rn() uint8 { return uint8(bitsOf(i.Raw, 19, 16)) }
func (i Instruction) Rd() uint8 { return uint8(bitsOf(i.Raw, 15, 12)) }
func (i Instruction) Rs() uint8 { return uint8(bitsOf(i.Raw, 11, 8)) }
func (i Instruction) Rm() uint8 { return uint8(bitsOf(i.Raw, 3, 0)) }

// RdHi/RdLo name the destination pair of a long-multiply instruction,
// which reuses the Rn/Rd bit positions.
func (i Instruction) RdHi() uint8 { return i.Rn() }
func (i Instruction) RdLo() uint8 { return i.Rd() }

// DPOp is the data-processing opcode field (bits 24..21).
func (i Instruction) DPOp() alu.Op { return alu.Op(bitsOf(i.Raw, 24, 21)) }

// ImmOffset12 is the 12-bit immediate offset of a single data transfer.
func (i Instruction) ImmOffset12() uint32 { return bitsOf(i.Raw, 11, 0) }

// Comment is the 24-bit SWI comment field.
func (i Instruction) Comment() uint32 { return bitsOf(i.Raw, 23, 0) }

// RegisterList is the 16-bit LDM/STM register bitmap.
func (i Instruction) RegisterList() uint16 { return uint16(bitsOf(i.Raw, 15, 0)) }

// HalfwordImmOffset is the 8-bit split immediate offset used by the
// LDRH/STRH immediate-offset family: bits 11..8 form the high nibble, bits
// 3..0 the low nibble.
func (i Instruction) HalfwordImmOffset() uint8 {
	hi := bitsOf(i.Raw, 11, 8)
	lo := bitsOf(i.Raw, 3, 0)
	return uint8(hi<<4 | lo)
}

// HalfwordOp is the SH field (bits 6..5) of a halfword/signed transfer,
// identifying unsigned halfword, signed byte, or signed halfword.
type HalfwordOp uint8

const (
	HalfwordReserved     HalfwordOp = 0b00
	HalfwordUnsignedHalf HalfwordOp = 0b01
	HalfwordSignedByte   HalfwordOp = 0b10
	HalfwordSignedHalf   HalfwordOp = 0b11
)

func (i Instruction) HalfwordOp() HalfwordOp { return HalfwordOp(bitsOf(i.Raw, 6, 5)) }

// BranchOffset is the 24-bit signed branch offset, sign-extended and
// left-shifted by 2 (spec section 4.5).
func (i Instruction) BranchOffset() int32 {
	raw := bitsOf(i.Raw, 23, 0)
	if raw&0x0080_0000 != 0 {
		raw |= 0xFF00_0000
	}
	return int32(raw) << 2
}

// Link is the BL/B link bit.
func (i Instruction) Link() bool { return bit(i.Raw, 24) }

// ShiftType is operand-2's shift type (bits 6..5) for a register-form
// data-processing operand.
func (i Instruction) ShiftType() shifter.Type { return shifter.Type(bitsOf(i.Raw, 6, 5)) }

// ShiftByRegister reports whether operand-2's shift amount comes from a
// register (bit 4 of a register-form data-processing operand) rather than
// an encoded immediate.
func (i Instruction) ShiftByRegister() bool { return bit(i.Raw, 4) }

// ShiftAmount is the 5-bit encoded immediate shift amount.
func (i Instruction) ShiftAmount() uint8 { return uint8(bitsOf(i.Raw, 11, 7)) }

// RotateAmount is the 4-bit rotate-immediate field of a rotated-immediate
// operand.
func (i Instruction) RotateAmount() uint8 { return uint8(bitsOf(i.Raw, 11, 8)) }

// Imm8 is the 8-bit immediate of a rotated-immediate operand.
func (i Instruction) Imm8() uint8 { return uint8(bitsOf(i.Raw, 7, 0)) }

// ShiftOperand evaluates the shift-field interpreter described in spec
// section 4.5 for a data-processing instruction's operand 2, given a
// register-read callback (for Rm and, when the shift amount is itself a
// register, Rs) and the current carry flag.
func (i Instruction) ShiftOperand(readReg func(uint8) uint32, carryIn bool) (uint32, bool) {
	if i.I() {
		return shifter.RotateImmediate(i.Imm8(), i.RotateAmount(), carryIn)
	}
	rm := readReg(i.Rm())
	t := i.ShiftType()
	if !i.ShiftByRegister() {
		return shifter.ByImmediate(t, rm, i.ShiftAmount(), carryIn)
	}
	amount := uint8(readReg(i.Rs()) & 0xFF)
	return shifter.ByRegister(t, rm, amount, carryIn)
}
