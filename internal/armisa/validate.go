package armisa

import "goba/internal/errs"

// CheckValid enforces the static register-use constraints spec section 4.5
// calls out for instructions whose bit pattern decodes cleanly but whose
// register fields are architecturally disallowed: R15 used where the
// architecture forbids it, and the MUL/MLA/long-multiply "destination
// reused as multiplicand" restriction.
func (i Instruction) CheckValid() error {
	switch i.Family {
	case FamilyMultiply:
		// The short-multiply encoding's destination is the bit-19-16 field
		// (Rn()) and its accumulate operand is the bit-15-12 field (Rd()) —
		// reversed from every other family, see execMultiply.
		if i.Rn() == i.Rm() {
			return &errs.InvalidRegisterReuse{RdLo: i.Rn(), Rm: i.Rm()}
		}
		if i.Rn() == 15 || i.Rm() == 15 || i.Rs() == 15 || (i.A() && i.Rd() == 15) {
			return &errs.InvalidUseOfR15{Reason: "MUL/MLA operand is r15"}
		}
	case FamilyMultiplyLong:
		if i.RdHi() == i.RdLo() || i.RdHi() == i.Rm() || i.RdLo() == i.Rm() {
			return &errs.InvalidRegisterReuse{RdHi: i.RdHi(), RdLo: i.RdLo(), Rs: i.Rs(), Rm: i.Rm()}
		}
		if i.RdHi() == 15 || i.RdLo() == 15 || i.Rm() == 15 || i.Rs() == 15 {
			return &errs.InvalidUseOfR15{Reason: "long multiply operand is r15"}
		}
	case FamilyHalfwordRegOffset:
		if i.Rm() == 15 {
			return &errs.InvalidUseOfR15{Reason: "LDRH/STRH register offset is r15"}
		}
		if !i.P() && i.W() {
			return &errs.InvalidOffsetWriteBack{Reason: "post-indexed halfword transfer cannot also write back"}
		}
	case FamilyHalfwordImmOffset:
		if !i.P() && i.W() {
			return &errs.InvalidOffsetWriteBack{Reason: "post-indexed halfword transfer cannot also write back"}
		}
	case FamilyBlockDataTransfer:
		// The S bit forces the user bank unless this is an LDM that loads r15
		// (that form restores CPSR from SPSR instead).
		forceUser := i.S() && (i.RegisterList()&0x8000 == 0 || !i.L())
		if forceUser && i.W() {
			return &errs.InvalidOffsetWriteBack{Reason: "LDM/STM with user-bank force and writeback"}
		}
		if i.RegisterList() == 0 {
			return &errs.InvalidUseOfR15{Reason: "LDM/STM with an empty register list"}
		}
	}
	return nil
}
