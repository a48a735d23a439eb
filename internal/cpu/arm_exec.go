package cpu

import (
	"math/bits"

	"goba/internal/alu"
	"goba/internal/armisa"
	"goba/internal/condition"
	"goba/internal/errs"
	"goba/internal/psr"
	"goba/internal/shifter"
)

// executeArm dispatches a decoded ARM instruction to its family handler
// (spec section 4.9). The condition field is evaluated first; a failing
// condition makes the instruction a no-op that still advances PC. The
// returned bool reports whether the executor requested a pipeline flush
// (a taken branch, an exception, or any write to r15).
func (c *CPU) executeArm(inst armisa.Instruction) (bool, error) {
	ok, err := condition.Eval(inst.Condition(), c.flagsSnapshot())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	switch inst.Family {
	case armisa.FamilyBX:
		return c.execBX(inst)
	case armisa.FamilyBranch:
		return c.execBranch(inst)
	case armisa.FamilyUnknown:
		return c.execUndefined()
	case armisa.FamilySWP:
		return c.execSWP(inst)
	case armisa.FamilyMultiply:
		return c.execMultiply(inst)
	case armisa.FamilyMultiplyLong:
		return c.execMultiplyLong(inst)
	case armisa.FamilyMRS:
		return c.execMRS(inst)
	case armisa.FamilyMSRRegister:
		return c.execMSR(inst, true)
	case armisa.FamilyMSRFlags:
		return c.execMSR(inst, false)
	case armisa.FamilySingleDataTransfer:
		return c.execSingleDataTransfer(inst)
	case armisa.FamilyHalfwordRegOffset, armisa.FamilyHalfwordImmOffset:
		return c.execHalfwordTransfer(inst)
	case armisa.FamilyBlockDataTransfer:
		return c.execBlockDataTransfer(inst)
	case armisa.FamilySWI:
		return c.execSWI(inst)
	case armisa.FamilyCDP, armisa.FamilyCoprocRegTransfer, armisa.FamilyCoprocDataTransfer:
		// The GBA has no co-processors; these decode but never execute
		// (spec section 4.9).
		return c.execUndefined()
	case armisa.FamilyDataProcessing:
		return c.execDataProcessing(inst)
	default:
		return false, &errs.InvalidArmInstruction{Word: inst.Raw}
	}
}

func (c *CPU) flagsSnapshot() condition.Flags {
	p := c.regs.CPSR()
	return condition.Flags{N: p.N(), Z: p.Z(), C: p.C(), V: p.V()}
}

func (c *CPU) readReg(n uint8) uint32 { return c.regs.GPR(n) }

func (c *CPU) writeReg(n uint8, v uint32) { c.regs.SetGPR(n, v) }

func (c *CPU) setFlags(n, z, cFlag, v bool) {
	p := c.regs.CPSR()
	p.SetN(n)
	p.SetZ(z)
	p.SetC(cFlag)
	p.SetV(v)
	c.regs.SetCPSR(p)
}

// faultPC is the address of the instruction currently executing: the live
// PC register already reflects the fetch-stage value (instr address + 8
// for ARM, + 4 for THUMB) because of genuine pipeline advancement (spec
// section 9, "Pipeline and PC semantics").
func (c *CPU) faultPCArm() uint32 { return c.regs.PC() - 8 }

func (c *CPU) execBX(inst armisa.Instruction) (bool, error) {
	target := c.readReg(inst.Rm())
	p := c.regs.CPSR()
	p.SetT(target&1 != 0)
	c.regs.SetCPSR(p)
	c.regs.SetPC(target &^ 1)
	c.flushPipeline()
	return true, nil
}

func (c *CPU) execBranch(inst armisa.Instruction) (bool, error) {
	pc := c.regs.PC()
	if inst.Link() {
		c.writeReg(14, pc-4)
	}
	c.regs.SetPC(uint32(int32(pc) + inst.BranchOffset()))
	c.flushPipeline()
	return true, nil
}

func (c *CPU) execUndefined() (bool, error) {
	c.RaiseException(ExceptionUndefinedInstr, c.faultPCArm())
	return true, nil
}

func (c *CPU) execSWP(inst armisa.Instruction) (bool, error) {
	addr := c.readReg(inst.Rn())
	if inst.B() {
		old, err := c.bus.Read8(addr)
		if err != nil {
			return false, err
		}
		if err := c.bus.Write8(addr, uint8(c.readReg(inst.Rm()))); err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), uint32(old))
	} else {
		old, err := c.bus.Read32(addr)
		if err != nil {
			return false, err
		}
		if err := c.bus.Write32(addr, c.readReg(inst.Rm())); err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), old)
	}
	return inst.Rd() == 15, nil
}

// execMultiply handles MUL/MLA. The short-multiply encoding puts the
// destination in the bit-19-16 field and the accumulate operand in the
// bit-15-12 field — the reverse of every other data-processing-shaped
// instruction — so the destination here is inst.Rn() and the accumulate
// operand is inst.Rd(), not the other way around.
func (c *CPU) execMultiply(inst armisa.Instruction) (bool, error) {
	rm := c.readReg(inst.Rm())
	rs := c.readReg(inst.Rs())
	acc := c.readReg(inst.Rd())
	result := alu.Multiply(rm, rs, acc, inst.A())
	if inst.Sbit() {
		n, z, cFlag := alu.MultiplyFlags(result)
		c.setFlags(n, z, cFlag, c.regs.CPSR().V())
	}
	c.writeReg(inst.Rn(), result)
	return inst.Rn() == 15, nil
}

func (c *CPU) execMultiplyLong(inst armisa.Instruction) (bool, error) {
	signed := inst.B() // bit 22, "U/S" field of the long-multiply encoding
	rm := c.readReg(inst.Rm())
	rs := c.readReg(inst.Rs())
	hiIn := c.readReg(inst.RdHi())
	loIn := c.readReg(inst.RdLo())
	hi, lo := alu.LongMultiply(rm, rs, signed, inst.A(), hiIn, loIn)
	if inst.Sbit() {
		n, z, cFlag, v := alu.LongMultiplyFlags(hi, lo)
		c.setFlags(n, z, cFlag, v)
	}
	c.writeReg(inst.RdHi(), hi)
	c.writeReg(inst.RdLo(), lo)
	return false, nil
}

func (c *CPU) execMRS(inst armisa.Instruction) (bool, error) {
	fromSPSR := inst.B() // bit 22, "R" field
	if fromSPSR {
		spsr, ok := c.regs.SPSR()
		if !ok {
			return false, &errs.PrivilegedUserCode{Reason: "MRS from SPSR in a mode with no SPSR"}
		}
		c.writeReg(inst.Rd(), spsr.Value())
	} else {
		c.writeReg(inst.Rd(), c.regs.CPSR().Value())
	}
	return inst.Rd() == 15, nil
}

// execMSR handles both the MSRRegister (full, privileged) and MSRFlags
// (flags-only, any mode) decode families (spec section 4.9).
func (c *CPU) execMSR(inst armisa.Instruction, full bool) (bool, error) {
	var operand uint32
	if inst.I() {
		operand, _ = shifter.RotateImmediate(inst.Imm8(), inst.RotateAmount(), false)
	} else {
		operand = c.readReg(inst.Rm())
	}

	toSPSR := inst.B() // bit 22, "R" field

	if full && !toSPSR && c.regs.Mode() == psr.User {
		// Full CPSR writes (including the mode field) are privileged; User
		// mode may only reach MSRFlags (spec section 4.9).
		return false, &errs.PrivilegedUserCode{Reason: "MSR full write to CPSR from User mode"}
	}

	if toSPSR {
		spsr, ok := c.regs.SPSR()
		if !ok {
			return false, &errs.PrivilegedUserCode{Reason: "MSR to SPSR in a mode with no SPSR"}
		}
		if full {
			spsr.OverrideAll(operand)
		} else {
			spsr.OverrideFlags(operand)
		}
		c.regs.SetSPSR(spsr)
		return false, nil
	}

	cur := c.regs.CPSR()
	oldMode := c.regs.Mode()
	if full {
		cur.OverrideAll(operand)
	} else {
		cur.OverrideFlags(operand)
	}
	newMode, err := cur.Mode()
	if err != nil {
		return false, err
	}
	c.regs.SetCPSR(cur)
	if full && newMode != oldMode {
		c.regs.ChangeMode(newMode)
	}
	return false, nil
}

func (c *CPU) addressOperand(inst armisa.Instruction) uint32 {
	if !inst.I() {
		return inst.ImmOffset12()
	}
	rm := c.readReg(inst.Rm())
	v, _ := shifter.ByImmediate(inst.ShiftType(), rm, inst.ShiftAmount(), c.regs.CPSR().C())
	return v
}

func (c *CPU) indexedAddress(base, offset uint32, up, pre bool) (effective, writeBackValue uint32) {
	var adjusted uint32
	if up {
		adjusted = base + offset
	} else {
		adjusted = base - offset
	}
	if pre {
		return adjusted, adjusted
	}
	return base, adjusted
}

func (c *CPU) execSingleDataTransfer(inst armisa.Instruction) (bool, error) {
	base := c.readReg(inst.Rn())
	offset := c.addressOperand(inst)
	effective, writeBack := c.indexedAddress(base, offset, inst.U(), inst.P())
	doWriteBack := inst.W() || !inst.P()

	if inst.L() {
		if inst.B() {
			v, err := c.bus.Read8(effective)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(v))
		} else {
			v, err := c.bus.Read32(effective)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), v)
		}
	} else {
		if inst.B() {
			if err := c.bus.Write8(effective, uint8(c.readReg(inst.Rd()))); err != nil {
				return false, err
			}
		} else {
			if err := c.bus.Write32(effective, c.readReg(inst.Rd())); err != nil {
				return false, err
			}
		}
	}

	if doWriteBack {
		c.writeReg(inst.Rn(), writeBack)
	}
	return inst.L() && inst.Rd() == 15, nil
}

func (c *CPU) execHalfwordTransfer(inst armisa.Instruction) (bool, error) {
	var offset uint32
	if inst.Family == armisa.FamilyHalfwordRegOffset {
		offset = c.readReg(inst.Rm())
	} else {
		offset = uint32(inst.HalfwordImmOffset())
	}
	base := c.readReg(inst.Rn())
	effective, writeBack := c.indexedAddress(base, offset, inst.U(), inst.P())
	doWriteBack := inst.W() || !inst.P()

	if inst.L() {
		switch inst.HalfwordOp() {
		case armisa.HalfwordUnsignedHalf:
			v, err := c.bus.Read16(effective)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(v))
		case armisa.HalfwordSignedByte:
			v, err := c.bus.Read8(effective)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(int32(int8(v))))
		case armisa.HalfwordSignedHalf:
			v, err := c.bus.Read16(effective)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(int32(int16(v))))
		}
	} else {
		// Signed stores are not architecturally meaningful; executed as
		// the unsigned halfword store (spec section 4.9).
		if err := c.bus.Write16(effective, uint16(c.readReg(inst.Rd()))); err != nil {
			return false, err
		}
	}

	if doWriteBack {
		c.writeReg(inst.Rn(), writeBack)
	}
	return inst.L() && inst.Rd() == 15, nil
}

func (c *CPU) execBlockDataTransfer(inst armisa.Instruction) (bool, error) {
	list := inst.RegisterList()
	count := uint32(bits.OnesCount16(list))
	base := c.readReg(inst.Rn())
	up, pre := inst.U(), inst.P()

	var low uint32
	switch {
	case up && pre:
		low = base + 4
	case up && !pre:
		low = base
	case !up && pre:
		low = base - 4*count
	default:
		low = base - 4*count + 4
	}
	var newBase uint32
	if up {
		newBase = base + 4*count
	} else {
		newBase = base - 4*count
	}

	includesPC := list&0x8000 != 0
	forceUser := inst.S() && (!includesPC || !inst.L())

	if inst.W() {
		c.writeReg(inst.Rn(), newBase)
	}

	addr := low
	flush := false
	for r := uint8(0); r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		useUserBank := forceUser && r >= 8 && r <= 14
		if inst.L() {
			v, err := c.bus.Read32(addr)
			if err != nil {
				return flush, err
			}
			if useUserBank {
				c.regs.WriteUserBank(r, v)
			} else {
				c.writeReg(r, v)
			}
			if r == 15 {
				flush = true
				if inst.S() {
					if spsr, ok := c.regs.SPSR(); ok {
						newMode, err := spsr.Mode()
						if err != nil {
							return flush, err
						}
						oldMode := c.regs.Mode()
						c.regs.SetCPSR(spsr)
						if newMode != oldMode {
							c.regs.ChangeMode(newMode)
						}
					}
				}
			}
		} else {
			var v uint32
			if useUserBank {
				v = c.regs.ReadUserBank(r)
			} else {
				v = c.readReg(r)
			}
			if err := c.bus.Write32(addr, v); err != nil {
				return flush, err
			}
		}
		addr += 4
	}
	return flush, nil
}

func (c *CPU) execSWI(inst armisa.Instruction) (bool, error) {
	comment := inst.Comment()
	if c.optimisedSWI && c.optimisedSWIFn != nil && c.optimisedSWIFn(comment) {
		return false, nil
	}
	c.RaiseException(ExceptionSoftwareInterrupt, c.faultPCArm())
	return true, nil
}

func (c *CPU) execDataProcessing(inst armisa.Instruction) (bool, error) {
	op := inst.DPOp()
	a := c.readReg(inst.Rn())
	carryIn := c.regs.CPSR().C()
	opVal, shifterCarry := inst.ShiftOperand(c.readReg, carryIn)
	rd := inst.Rd()

	if !inst.Sbit() {
		if op.IsTest() {
			return false, nil
		}
		c.writeReg(rd, alu.NonFlagSetting(op, a, opVal, carryIn))
		return rd == 15, nil
	}

	res, n, z, cFlag, v := alu.FlagSetting(op, a, opVal, carryIn, shifterCarry, c.regs.CPSR().V())

	if rd == 15 && !op.IsTest() {
		if res != nil {
			c.writeReg(rd, *res)
		}
		spsr, ok := c.regs.SPSR()
		if !ok {
			return false, &errs.PrivilegedUserCode{Reason: "data-processing S-bit write to r15 with no SPSR"}
		}
		newMode, err := spsr.Mode()
		if err != nil {
			return false, err
		}
		oldMode := c.regs.Mode()
		c.regs.SetCPSR(spsr)
		if newMode != oldMode {
			c.regs.ChangeMode(newMode)
		}
		return true, nil
	}

	c.setFlags(n, z, cFlag, v)
	if res != nil {
		c.writeReg(rd, *res)
	}
	return rd == 15 && res != nil, nil
}
