// Package shifter implements the ARM barrel shifter shared by the ARM and
// THUMB executors (spec section 4.8): LSL/LSR/ASR/ROR by immediate or by
// register, RRX, and the "shift by 32 or more" edge table.
package shifter

import "math/bits"

// Type is one of the four ARM shift/rotate operations.
type Type uint8

const (
	LSL Type = iota
	LSR
	ASR
	ROR
)

// RotateImmediate computes the ARM data-processing rotated-immediate
// operand: rotate_right(imm8, 2*rotateAmount). carryIn is returned
// unchanged when rotateAmount is zero; otherwise carryOut is bit 31 of the
// rotated result (spec section 4.5, "Immediate operand").
func RotateImmediate(imm8 uint8, rotateAmount uint8, carryIn bool) (value uint32, carryOut bool) {
	if rotateAmount == 0 {
		return uint32(imm8), carryIn
	}
	shift := uint(rotateAmount) * 2 % 32
	value = bits.RotateLeft32(uint32(imm8), -int(shift))
	carryOut = value&0x8000_0000 != 0
	return value, carryOut
}

// ByImmediate computes a register operand shifted by an immediate amount
// 0..31 as encoded directly in an instruction. The zero-amount edge cases
// are opcode-specific per the ARM ARM (spec section 4.5, "Register
// operand, immediate shift amount"):
//
//	LSL #0  -> value unchanged, carry unchanged
//	LSR #0  -> treated as LSR #32 (result 0, carry = bit 31 of value)
//	ASR #0  -> treated as ASR #32 (result sign-broadcast, carry = bit 31)
//	ROR #0  -> RRX: rotate right through carry by one bit
func ByImmediate(t Type, value uint32, amount uint8, carryIn bool) (uint32, bool) {
	switch t {
	case LSL:
		if amount == 0 {
			return value, carryIn
		}
		return shiftLeft(value, uint(amount))
	case LSR:
		if amount == 0 {
			amount = 32
		}
		return shiftRight(value, uint(amount))
	case ASR:
		if amount == 0 {
			amount = 32
		}
		return shiftArithmetic(value, uint(amount))
	case ROR:
		if amount == 0 {
			return rrx(value, carryIn)
		}
		return rotateRight(value, uint(amount))
	default:
		return value, carryIn
	}
}

// ByRegister computes a register operand shifted by an amount taken from
// the low 8 bits of a register (spec section 4.5, "Register operand,
// register shift amount"). An amount of zero leaves the value and carry
// unchanged; amounts of 32 or more follow the ARM edge table.
func ByRegister(t Type, value uint32, amount uint8, carryIn bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}
	switch t {
	case LSL:
		return shiftLeft(value, uint(amount))
	case LSR:
		return shiftRight(value, uint(amount))
	case ASR:
		return shiftArithmetic(value, uint(amount))
	case ROR:
		reduced := uint(amount) % 32
		if reduced == 0 {
			// ROR by a non-zero multiple of 32: value unchanged, carry = bit 31.
			return value, value&0x8000_0000 != 0
		}
		return rotateRight(value, reduced)
	default:
		return value, carryIn
	}
}

func shiftLeft(value uint32, amount uint) (uint32, bool) {
	switch {
	case amount == 32:
		return 0, value&1 != 0
	case amount > 32:
		return 0, false
	default:
		carryOut := (value>>(32-amount))&1 != 0
		return value << amount, carryOut
	}
}

func shiftRight(value uint32, amount uint) (uint32, bool) {
	switch {
	case amount == 32:
		return 0, value&0x8000_0000 != 0
	case amount > 32:
		return 0, false
	default:
		carryOut := (value>>(amount-1))&1 != 0
		return value >> amount, carryOut
	}
}

func shiftArithmetic(value uint32, amount uint) (uint32, bool) {
	signed := int32(value)
	if amount >= 32 {
		if value&0x8000_0000 != 0 {
			return 0xFFFF_FFFF, true
		}
		return 0, false
	}
	carryOut := (value>>(amount-1))&1 != 0
	return uint32(signed >> amount), carryOut
}

func rotateRight(value uint32, amount uint) (uint32, bool) {
	amount %= 32
	result := bits.RotateLeft32(value, -int(amount))
	carryOut := result&0x8000_0000 != 0
	return result, carryOut
}

// rrx rotates value right by one bit through the current carry flag,
// shifting the old carry into bit 31 and producing the new carry from the
// old bit 0.
func rrx(value uint32, carryIn bool) (uint32, bool) {
	carryOut := value&1 != 0
	result := value >> 1
	if carryIn {
		result |= 0x8000_0000
	}
	return result, carryOut
}
