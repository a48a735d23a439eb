// Package cpu owns the ARM7TDMI register file, pipeline latches, mode and
// exception machinery, and the step entry point that drives the ARM and
// THUMB executors (spec section 4.11).
package cpu

import "goba/internal/psr"

// Registers is the banked general-purpose register file plus the live
// CPSR. Exactly one mode's R13/R14/SPSR are live in gpr/spsr at any time;
// the other modes' copies live in the per-mode banks (spec section 3), where
// User and System share one R13/R14 slot. R8-R12 are additionally banked
// for FIQ only.
type Registers struct {
	gpr  [16]uint32
	cpsr psr.PSR
	mode psr.Mode

	r13Bank [psr.NumModes]uint32
	r14Bank [psr.NumModes]uint32
	spsr    [psr.NumModes]psr.PSR

	r8to12FIQ   [5]uint32
	r8to12Other [5]uint32
}

// Reset zeroes every register and bank, and places the CPU in Supervisor
// mode, ARM state, interrupts masked (spec section 4.11).
func (r *Registers) Reset() {
	*r = Registers{}
	r.cpsr.SetMode(psr.Supervisor)
	r.cpsr.SetI(true)
	r.cpsr.SetF(true)
	r.mode = psr.Supervisor
}

// GPR reads a general-purpose register by index (0..15) as currently
// banked.
func (r *Registers) GPR(n uint8) uint32 { return r.gpr[n] }

// SetGPR writes a general-purpose register by index.
func (r *Registers) SetGPR(n uint8, v uint32) { r.gpr[n] = v }

// PC is a convenience accessor for r15.
func (r *Registers) PC() uint32 { return r.gpr[15] }

// SetPC is a convenience setter for r15.
func (r *Registers) SetPC(v uint32) { r.gpr[15] = v }

// CPSR returns the live Current Program Status Register.
func (r *Registers) CPSR() psr.PSR { return r.cpsr }

// SetCPSR overwrites the live CPSR wholesale (used by exception return and
// MSR full-register forms), mode bits included. It does not update r.mode
// or swap any banked registers, so callers that change the mode follow it
// with ChangeMode.
func (r *Registers) SetCPSR(p psr.PSR) { r.cpsr = p }

// Mode returns the processor's current mode.
func (r *Registers) Mode() psr.Mode { return r.mode }

// SPSR returns the current mode's Saved PSR and whether one exists: User
// and System modes have no SPSR of their own (spec section 3).
func (r *Registers) SPSR() (psr.PSR, bool) {
	if r.mode == psr.User || r.mode == psr.System {
		return psr.PSR{}, false
	}
	return r.spsr[r.mode], true
}

// SetSPSR writes the current mode's Saved PSR. Callers must check that the
// current mode actually has one (see SPSR) before calling this.
func (r *Registers) SetSPSR(p psr.PSR) { r.spsr[r.mode] = p }

// ReadUserBank reads register n (8..14) as it appears in User mode,
// regardless of the currently active mode, for the LDM/STM user-bank-force
// addressing mode (spec section 4.9). R8-R12 live in the shared (non-FIQ)
// bank whenever the current mode isn't FIQ; R13/R14 live in their own
// per-mode banks except while User/System is actually current.
func (r *Registers) ReadUserBank(n uint8) uint32 {
	if r.mode == psr.User || r.mode == psr.System {
		return r.gpr[n]
	}
	switch {
	case n >= 8 && n <= 12:
		if r.mode == psr.FIQ {
			return r.r8to12Other[n-8]
		}
		return r.gpr[n]
	case n == 13:
		return r.r13Bank[psr.User]
	case n == 14:
		return r.r14Bank[psr.User]
	default:
		return r.gpr[n]
	}
}

// WriteUserBank is the write counterpart of ReadUserBank.
func (r *Registers) WriteUserBank(n uint8, v uint32) {
	if r.mode == psr.User || r.mode == psr.System {
		r.gpr[n] = v
		return
	}
	switch {
	case n >= 8 && n <= 12:
		if r.mode == psr.FIQ {
			r.r8to12Other[n-8] = v
		} else {
			r.gpr[n] = v
		}
	case n == 13:
		r.r13Bank[psr.User] = v
	case n == 14:
		r.r14Bank[psr.User] = v
	default:
		r.gpr[n] = v
	}
}

// ChangeMode performs the banked-register swap described in spec section
// 4.11: the outgoing mode's R13/R14 are stashed, the incoming mode's are
// loaded, and R8-R12 are swapped between the FIQ and shared banks iff
// exactly one of the outgoing/incoming modes is FIQ. User and System share
// one R13/R14 slot (the User one). CPSR's mode field is updated to match.
// This does not touch SPSR; raise_exception and MSR handle that separately
// since not every mode change implies a new SPSR value.
func (r *Registers) ChangeMode(newMode psr.Mode) {
	old := r.mode
	oldSlot, newSlot := old, newMode
	if oldSlot == psr.System {
		oldSlot = psr.User
	}
	if newSlot == psr.System {
		newSlot = psr.User
	}
	r.r13Bank[oldSlot] = r.gpr[13]
	r.r14Bank[oldSlot] = r.gpr[14]
	r.gpr[13] = r.r13Bank[newSlot]
	r.gpr[14] = r.r14Bank[newSlot]

	if (old == psr.FIQ) != (newMode == psr.FIQ) {
		if old == psr.FIQ {
			copy(r.r8to12FIQ[:], r.gpr[8:13])
			copy(r.gpr[8:13], r.r8to12Other[:])
		} else {
			copy(r.r8to12Other[:], r.gpr[8:13])
			copy(r.gpr[8:13], r.r8to12FIQ[:])
		}
	}

	r.mode = newMode
	r.cpsr.SetMode(newMode)
}
