package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWithCV(t *testing.T) {
	r, c, v := AddWithCV(0xFFFF_FFFF, 1)
	assert.Equal(t, uint32(0), r)
	assert.True(t, c, "unsigned overflow should set carry")
	assert.False(t, v)

	r, c, v = AddWithCV(0x7FFF_FFFF, 1)
	assert.Equal(t, uint32(0x8000_0000), r)
	assert.False(t, c)
	assert.True(t, v, "signed overflow: positive + positive = negative")
}

func TestSubWithCV(t *testing.T) {
	r, c, v := SubWithCV(5, 3)
	assert.Equal(t, uint32(2), r)
	assert.True(t, c, "no borrow occurred")
	assert.False(t, v)

	r, c, v = SubWithCV(0, 1)
	assert.Equal(t, uint32(0xFFFF_FFFF), r)
	assert.False(t, c, "borrow occurred")
	assert.False(t, v)

	r, c, v = SubWithCV(0x8000_0000, 1)
	assert.Equal(t, uint32(0x7FFF_FFFF), r)
	assert.True(t, c)
	assert.True(t, v, "signed overflow: negative - positive = positive")
}

func TestNonFlagSettingPanicsOnTestOpcode(t *testing.T) {
	assert.Panics(t, func() {
		NonFlagSetting(CMP, 1, 2, false)
	})
}

func TestFlagSettingLogicalUsesShifterCarryAndPreservesV(t *testing.T) {
	res, n, z, c, v := FlagSetting(AND, 0xFF, 0x0F, false, true, true)
	require.NotNil(t, res)
	assert.Equal(t, uint32(0x0F), *res)
	assert.False(t, n)
	assert.False(t, z)
	assert.True(t, c, "logical C comes from the shifter carry-out")
	assert.True(t, v, "logical V is preserved, not recomputed")
}

func TestFlagSettingTestOpcodeWritesNoResult(t *testing.T) {
	res, _, _, _, _ := FlagSetting(CMP, 5, 5, false, false, false)
	assert.Nil(t, res)
}

func TestFlagSettingZeroAndNegative(t *testing.T) {
	res, n, z, _, _ := FlagSetting(SUB, 5, 5, false, false, false)
	require.NotNil(t, res)
	assert.True(t, z)
	assert.False(t, n)

	res, n, z, _, _ = FlagSetting(MOV, 0, 0x8000_0000, false, false, false)
	require.NotNil(t, res)
	assert.True(t, n)
	assert.False(t, z)
}

func TestADCAddsCarryIn(t *testing.T) {
	res, c, v, wrote := compute(ADC, 1, 1, true, true)
	assert.Equal(t, uint32(3), res)
	assert.False(t, c)
	assert.False(t, v)
	assert.True(t, wrote)
}

func TestSBCSubtractsOneMinusCarry(t *testing.T) {
	// SBC: a - b - (1 - carry). With carry=1, this is plain a - b.
	res, _, _ := compute3(SBC, 10, 3, true)
	assert.Equal(t, uint32(7), res)

	// With carry=0, one extra is subtracted.
	res, _, _ = compute3(SBC, 10, 3, false)
	assert.Equal(t, uint32(6), res)
}

func compute3(op Op, a, b uint32, carryIn bool) (uint32, bool, bool) {
	r, c, v, _ := compute(op, a, b, carryIn, true)
	return r, c, v
}

func TestIsTest(t *testing.T) {
	for _, op := range []Op{TST, TEQ, CMP, CMN} {
		assert.True(t, op.IsTest())
	}
	for _, op := range []Op{AND, ADD, MOV, MVN} {
		assert.False(t, op.IsTest())
	}
}

func TestMultiplyWrapsTo32Bits(t *testing.T) {
	r := Multiply(0x1_0000, 0x1_0000, 0, false)
	assert.Equal(t, uint32(0), r)

	r = Multiply(3, 4, 10, true)
	assert.Equal(t, uint32(22), r)
}

func TestLongMultiplySigned(t *testing.T) {
	hi, lo := LongMultiply(0xFFFF_FFFF, 0xFFFF_FFFF, true, false, 0, 0)
	// (-1) * (-1) == 1
	assert.Equal(t, uint32(0), hi)
	assert.Equal(t, uint32(1), lo)
}

func TestLongMultiplyUnsignedAccumulate(t *testing.T) {
	hi, lo := LongMultiply(0xFFFF_FFFF, 2, false, true, 0, 1)
	// 0xFFFF_FFFF * 2 = 0x1_FFFF_FFFE, plus accumulator 1 = 0x1_FFFF_FFFF
	assert.Equal(t, uint32(1), hi)
	assert.Equal(t, uint32(0xFFFF_FFFF), lo)
}

func TestLongMultiplyFlagsUnpredictableBitsAreFalse(t *testing.T) {
	_, _, c, v := LongMultiplyFlags(0, 0)
	assert.False(t, c)
	assert.False(t, v)
}
