package errs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"InvalidArmInstruction", &InvalidArmInstruction{Word: 0xDEAD_BEEF}, "invalid ARM instruction: 0xdeadbeef"},
		{"InvalidThumbInstruction", &InvalidThumbInstruction{Half: 0xABCD}, "invalid THUMB instruction: 0xabcd"},
		{"ReservedCondition", &ReservedCondition{}, "reserved condition code NV (0b1111)"},
		{"InvalidPhysicalAddress", &InvalidPhysicalAddress{Addr: 0x1234}, "invalid physical address: 0x00001234"},
		{"InvalidRomAccess", &InvalidRomAccess{Addr: 0x0800_0000}, "invalid write to ROM at 0x08000000"},
		{"InvalidMemoryBusWidth", &InvalidMemoryBusWidth{Addr: 0x0E00_0000, Width: 32}, "invalid 32-bit bus access at 0x0e000000"},
		{"InvalidUseOfR15", &InvalidUseOfR15{Reason: "base register"}, "invalid use of r15: base register"},
		{"InvalidRegisterReuse", &InvalidRegisterReuse{RdHi: 1, RdLo: 2, Rs: 3, Rm: 1}, "invalid register reuse: RdHi=r1 RdLo=r2 Rs=r3 Rm=r1"},
		{"InvalidOffsetWriteBack", &InvalidOffsetWriteBack{Reason: "halfword post-indexed"}, "invalid offset write-back: halfword post-indexed"},
		{"PrivilegedUserCode", &PrivilegedUserCode{Reason: "MSR full write"}, "privileged operation attempted from user mode: MSR full write"},
		{"InvalidPsrMode", &InvalidPsrMode{Bits: 0b01010}, "invalid PSR mode bits: 0b0001010"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}
