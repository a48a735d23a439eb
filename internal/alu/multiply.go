package alu

// Multiply computes Rm*Rs (MUL), or Rm*Rs+Rn (MLA) when accumulate is
// true, wrapping to 32 bits (spec section 4.7).
func Multiply(rm, rs, rn uint32, accumulate bool) uint32 {
	result := rm * rs
	if accumulate {
		result += rn
	}
	return result
}

// MultiplyFlags computes the N and Z flags for a flags-setting MUL/MLA.
// C is architecturally unpredictable; this implementation writes false,
// matching the source (spec section 4.7 and the open question in section
// 9).
func MultiplyFlags(result uint32) (n, z, c bool) {
	return result&0x8000_0000 != 0, result == 0, false
}

// LongMultiply computes the 64-bit product of rm and rs, optionally signed
// and/or accumulating the previous RdHi:RdLo value, per spec section 4.7.
func LongMultiply(rm, rs uint32, signed bool, accumulate bool, hiIn, loIn uint32) (hi, lo uint32) {
	var product uint64
	if signed {
		product = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		product = uint64(rm) * uint64(rs)
	}
	if accumulate {
		product += uint64(hiIn)<<32 | uint64(loIn)
	}
	return uint32(product >> 32), uint32(product)
}

// LongMultiplyFlags computes the N and Z flags for a flags-setting long
// multiply from the 64-bit RdHi:RdLo result. C and V are architecturally
// unpredictable; this implementation writes false for both (spec section
// 4.7 and the open question in section 9), and alu_test.go pins that
// choice.
func LongMultiplyFlags(hi, lo uint32) (n, z, c, v bool) {
	n = hi&0x8000_0000 != 0
	z = hi == 0 && lo == 0
	return n, z, false, false
}
