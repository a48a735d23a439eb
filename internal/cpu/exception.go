package cpu

import "goba/internal/psr"

// Exception is one of the eight ARM7TDMI exception kinds. The numeric
// values are the bit-exact indices spec section 6 specifies; the vector
// address for an exception is 4 × its index.
type Exception uint8

const (
	ExceptionReset               Exception = 0
	ExceptionUndefinedInstr      Exception = 1
	ExceptionSoftwareInterrupt   Exception = 2
	ExceptionPrefetchAbort       Exception = 3
	ExceptionDataAbort           Exception = 4
	ExceptionAddressExceeds26Bit Exception = 5
	ExceptionIRQ                 Exception = 6
	ExceptionFIQ                 Exception = 7
)

// priority returns the exception's priority (1 = highest) per spec section
// 4.11. Lower numbers win when more than one exception is pending in the
// same step.
func (e Exception) priority() int {
	switch e {
	case ExceptionReset:
		return 1
	case ExceptionDataAbort:
		return 2
	case ExceptionFIQ, ExceptionAddressExceeds26Bit:
		return 3
	case ExceptionIRQ:
		return 4
	case ExceptionPrefetchAbort:
		return 5
	case ExceptionSoftwareInterrupt:
		return 6
	case ExceptionUndefinedInstr:
		return 7
	default:
		return 7
	}
}

// HighestPriority picks the pending exception with the lowest priority
// number (highest precedence) from a set of candidates. Callers pass only
// the exceptions actually pending this step.
func HighestPriority(pending []Exception) (Exception, bool) {
	if len(pending) == 0 {
		return 0, false
	}
	best := pending[0]
	for _, e := range pending[1:] {
		if e.priority() < best.priority() {
			best = e
		}
	}
	return best, true
}

// targetMode is the mode an exception switches to.
func (e Exception) targetMode() psr.Mode {
	switch e {
	case ExceptionReset:
		return psr.Supervisor
	case ExceptionUndefinedInstr:
		return psr.Undefined
	case ExceptionSoftwareInterrupt:
		return psr.Supervisor
	case ExceptionPrefetchAbort:
		return psr.Abort
	case ExceptionDataAbort:
		return psr.Abort
	case ExceptionAddressExceeds26Bit:
		return psr.Supervisor
	case ExceptionIRQ:
		return psr.IRQ
	case ExceptionFIQ:
		return psr.FIQ
	default:
		return psr.Supervisor
	}
}

// returnOffset is the value added to the address of the instruction that
// caused the exception to compute the return address stashed in the new
// mode's LR, per the ARM ARM (spec section 9's open-question resolution:
// the source's "nn field"/"PC+0" shortcuts are architecturally wrong and
// are not followed here).
func (e Exception) returnOffset() uint32 {
	if e == ExceptionDataAbort {
		return 8
	}
	return 4
}

// setsF reports whether taking this exception also sets CPSR.F (only Reset
// and FIQ mask further FIQs; every exception masks IRQ).
func (e Exception) setsF() bool {
	return e == ExceptionReset || e == ExceptionFIQ
}

// RaiseException performs the atomic transition described in spec section
// 4.11: record the return address, switch mode (banking registers), save
// old CPSR into the new mode's SPSR, force ARM state and mask interrupts,
// vector PC, and flush the pipeline. faultPC is the address of the
// instruction that caused (or would have executed next for Reset/IRQ/FIQ)
// the exception.
func (c *CPU) RaiseException(e Exception, faultPC uint32) {
	oldCPSR := c.regs.CPSR()
	returnAddr := faultPC + e.returnOffset()

	c.regs.ChangeMode(e.targetMode())
	c.regs.SetSPSR(oldCPSR)
	c.regs.SetGPR(14, returnAddr)

	newCPSR := c.regs.CPSR()
	newCPSR.SetT(false)
	newCPSR.SetI(true)
	if e.setsF() {
		newCPSR.SetF(true)
	}
	c.regs.SetCPSR(newCPSR)

	c.regs.SetPC(4 * uint32(e))
	c.flushPipeline()
}
