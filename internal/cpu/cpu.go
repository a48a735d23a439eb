package cpu

import (
	"goba/internal/armisa"
	"goba/internal/interfaces"
	"goba/internal/psr"
	"goba/internal/thumbisa"
)

// nopArm is the pseudo-NOP ARM word the pipeline substitutes on flush: a
// conditional move that executes only when EQ, with zero operands (spec
// section 3).
const nopArm uint32 = 0x01A0_0000

// nopThumb is the pseudo-NOP THUMB halfword the pipeline substitutes on
// flush: "mov r8, r8", which updates no flags (spec section 3).
const nopThumb uint16 = 0x46C0

// CPU is the ARM7TDMI core: register file, pipeline latches, and the step
// entry point. It owns no backing stores directly; all memory traffic goes
// through the injected Bus (spec section 9, "Cycles, ownership and the
// bus"). A CPU does no locking of its own: a host that shares one across
// goroutines must synchronize access itself.
type CPU struct {
	regs Registers
	bus  interfaces.Bus

	optimisedSWI   bool
	optimisedSWIFn func(comment uint32) bool

	fetchedArm uint32
	decodedArm uint32 // raw word; re-decoded at execute time

	fetchedThumb uint16
	decodedThumb uint16 // raw halfword; re-decoded at execute time
}

// New constructs a CPU over the given bus, already reset.
func New(bus interfaces.Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset puts the CPU in its power-on state: zeroed registers, Supervisor
// mode, ARM state, PC=0, interrupts masked, pipeline flushed (spec section
// 4.11).
func (c *CPU) Reset() {
	c.regs.Reset()
	c.flushPipeline()
}

// Regs exposes the register file for the executors in this package and for
// callers that need direct register access (debugdiff, tests).
func (c *CPU) Regs() *Registers { return &c.regs }

// Bus exposes the injected bus for the executors.
func (c *CPU) Bus() interfaces.Bus { return c.bus }

// SetOptimisedSWI enables or disables the optimised-BIOS SWI shortcut
// (spec section 4.9). When enabled and optimisedSWIFn is set and returns
// true for a given comment code, the real exception flow is skipped.
func (c *CPU) SetOptimisedSWI(enabled bool) { c.optimisedSWI = enabled }

// SetOptimisedSWIHandler installs the callback consulted when the
// optimised-BIOS mode is enabled. Returning true means the handler fully
// serviced the call and the real SWI exception must not be raised.
func (c *CPU) SetOptimisedSWIHandler(fn func(comment uint32) bool) {
	c.optimisedSWIFn = fn
}

// flushPipeline replaces both decoded and both fetched slots with the
// state's pseudo-NOP, so the next Step refetches cleanly from the
// (already updated) PC (spec section 3).
func (c *CPU) flushPipeline() {
	c.fetchedArm = nopArm
	c.decodedArm = nopArm
	c.fetchedThumb = nopThumb
	c.decodedThumb = nopThumb
}

// Step advances one pipeline slot (spec section 4.11). In ARM state: fetch
// a word at PC, decode the previously fetched word, execute the previously
// decoded instruction; then advance PC by 4 unless the executor requested
// a flush. THUMB state is identical with halfwords and PC+2. A decode or
// execution error surfaces to the caller and leaves the CPU in whatever
// partially-updated state the failing stage produced (spec section 5).
func (c *CPU) Step() error {
	if c.regs.CPSR().T() {
		return c.stepThumb()
	}
	return c.stepArm()
}

func (c *CPU) stepArm() error {
	pc := c.regs.PC()
	word, err := c.bus.Read32(pc)
	if err != nil {
		return err
	}

	toExecute := c.decodedArm
	c.decodedArm = c.fetchedArm
	c.fetchedArm = word

	inst, err := armisa.Decode(toExecute)
	if err != nil {
		return err
	}
	if err := inst.CheckValid(); err != nil {
		return err
	}

	flush, err := c.executeArm(inst)
	if err != nil {
		return err
	}
	if flush {
		// Any write to r15 invalidates whatever the pipeline already fetched
		// from the old PC; individual handlers that branch explicitly flush
		// already, but this catches every other PC-writing path uniformly
		// (spec section 9, "Pipeline and PC semantics").
		c.flushPipeline()
	} else {
		c.regs.SetPC(pc + 4)
	}
	return nil
}

func (c *CPU) stepThumb() error {
	pc := c.regs.PC()
	half, err := c.bus.Read16(pc)
	if err != nil {
		return err
	}

	toExecute := c.decodedThumb
	c.decodedThumb = c.fetchedThumb
	c.fetchedThumb = half

	inst, err := thumbisa.Decode(toExecute)
	if err != nil {
		return err
	}

	flush, err := c.executeThumb(inst)
	if err != nil {
		return err
	}
	if flush {
		c.flushPipeline()
	} else {
		c.regs.SetPC(pc + 2)
	}
	return nil
}

// Snapshot is the introspectable register state exposed by the core (spec
// section 6).
type Snapshot struct {
	GPR          [16]uint32
	CPSR         uint32
	SPSR         [psr.NumModes]uint32
	Mode         psr.Mode
	Thumb        bool
	FetchedArm   uint32
	DecodedArm   uint32
	FetchedThumb uint16
	DecodedThumb uint16
	R8to12FIQ    [5]uint32
	R8to12Other  [5]uint32
	R13Bank      [psr.NumModes]uint32
	R14Bank      [psr.NumModes]uint32
}

// Snapshot captures the full register file and pipeline state, used by
// save-state round-tripping and by internal/debugdiff.
func (c *CPU) Snapshot() Snapshot {
	s := Snapshot{
		GPR:          c.regs.gpr,
		CPSR:         c.regs.cpsr.Value(),
		Mode:         c.regs.mode,
		Thumb:        c.regs.cpsr.T(),
		FetchedArm:   c.fetchedArm,
		DecodedArm:   c.decodedArm,
		FetchedThumb: c.fetchedThumb,
		DecodedThumb: c.decodedThumb,
		R8to12FIQ:    c.regs.r8to12FIQ,
		R8to12Other:  c.regs.r8to12Other,
		R13Bank:      c.regs.r13Bank,
		R14Bank:      c.regs.r14Bank,
	}
	for m := range s.SPSR {
		s.SPSR[m] = c.regs.spsr[m].Value()
	}
	return s
}
