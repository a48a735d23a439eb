package cpu

import (
	"math/bits"

	"goba/internal/alu"
	"goba/internal/condition"
	"goba/internal/errs"
	"goba/internal/shifter"
	"goba/internal/thumbisa"
)

// executeThumb dispatches a decoded THUMB instruction (spec section 4.10).
// Every family lowers to the same ALU, barrel-shifter and bus primitives
// the ARM executor uses (spec section 9), so flag semantics are verified
// in one place.
func (c *CPU) executeThumb(inst thumbisa.Instruction) (bool, error) {
	switch inst.Family {
	case thumbisa.FamilyAddSub:
		return c.thumbAddSub(inst)
	case thumbisa.FamilyMoveShiftedReg:
		return c.thumbMoveShiftedReg(inst)
	case thumbisa.FamilyDataProcessingFlags:
		return c.thumbDataProcessingFlags(inst)
	case thumbisa.FamilyAluMul:
		return c.thumbAluMul(inst)
	case thumbisa.FamilyAluOperation:
		return c.thumbAluOperation(inst)
	case thumbisa.FamilyHiRegOpBx:
		return c.thumbHiRegOpBx(inst)
	case thumbisa.FamilyLdrPcImm:
		return c.thumbLdrPcImm(inst)
	case thumbisa.FamilyLdrStrReg:
		return c.thumbLdrStrReg(inst)
	case thumbisa.FamilyLdrhStrhReg:
		return c.thumbLdrhStrhReg(inst)
	case thumbisa.FamilyLdrStrImm:
		return c.thumbLdrStrImm(inst)
	case thumbisa.FamilyLdrhStrhImm:
		return c.thumbLdrhStrhImm(inst)
	case thumbisa.FamilyLdrStrSpImm:
		return c.thumbLdrStrSpImm(inst)
	case thumbisa.FamilyCalcAddrImm:
		return c.thumbCalcAddrImm(inst)
	case thumbisa.FamilyAddSpOffs:
		return c.thumbAddSpOffs(inst)
	case thumbisa.FamilyPushPopRegs:
		return c.thumbPushPopRegs(inst)
	case thumbisa.FamilyLdmStmRegs:
		return c.thumbLdmStmRegs(inst)
	case thumbisa.FamilySoftwareInterrupt:
		return c.thumbSWI(inst)
	case thumbisa.FamilyBranchConditionOffs:
		return c.thumbBranchConditionOffs(inst)
	case thumbisa.FamilyBranchOffs:
		return c.thumbBranchOffs(inst)
	case thumbisa.FamilyBranchLongOffs:
		return c.thumbBranchLongOffs(inst)
	default:
		return false, &errs.InvalidThumbInstruction{Half: inst.Raw}
	}
}

func (c *CPU) faultPCThumb() uint32 { return c.regs.PC() - 4 }

func (c *CPU) thumbAddSub(inst thumbisa.Instruction) (bool, error) {
	rsVal := c.readReg(inst.Rs())
	var operand uint32
	if inst.AddSubImmediate() {
		operand = uint32(inst.Imm3())
	} else {
		operand = c.readReg(inst.Rn())
	}
	op := alu.ADD
	if inst.IsSub() {
		op = alu.SUB
	}
	res, n, z, cFlag, v := alu.FlagSetting(op, rsVal, operand, false, false, c.regs.CPSR().V())
	c.setFlags(n, z, cFlag, v)
	c.writeReg(inst.Rd(), *res)
	return false, nil
}

func (c *CPU) thumbMoveShiftedReg(inst thumbisa.Instruction) (bool, error) {
	carryIn := c.regs.CPSR().C()
	val, carryOut := shifter.ByImmediate(inst.ShiftType(), c.readReg(inst.Rs()), inst.Imm5(), carryIn)
	c.writeReg(inst.Rd(), val)
	c.setFlags(val&0x8000_0000 != 0, val == 0, carryOut, c.regs.CPSR().V())
	return false, nil
}

func (c *CPU) thumbDataProcessingFlags(inst thumbisa.Instruction) (bool, error) {
	rd := inst.Rm8()
	imm := uint32(inst.Imm8())
	carryIn := c.regs.CPSR().C()
	currentV := c.regs.CPSR().V()

	var op alu.Op
	var a uint32
	switch inst.DataProcessingFlagsOp() {
	case thumbisa.ImmMOV:
		op, a = alu.MOV, 0
	case thumbisa.ImmCMP:
		op, a = alu.CMP, c.readReg(rd)
	case thumbisa.ImmADD:
		op, a = alu.ADD, c.readReg(rd)
	case thumbisa.ImmSUB:
		op, a = alu.SUB, c.readReg(rd)
	}
	res, n, z, cFlag, v := alu.FlagSetting(op, a, imm, carryIn, carryIn, currentV)
	c.setFlags(n, z, cFlag, v)
	if res != nil {
		c.writeReg(rd, *res)
	}
	return false, nil
}

func (c *CPU) thumbAluMul(inst thumbisa.Instruction) (bool, error) {
	rd, rs := inst.Rd(), inst.Rs()
	result := alu.Multiply(c.readReg(rd), c.readReg(rs), 0, false)
	c.writeReg(rd, result)
	c.setFlags(result&0x8000_0000 != 0, result == 0, false, c.regs.CPSR().V())
	return false, nil
}

func (c *CPU) thumbAluOperation(inst thumbisa.Instruction) (bool, error) {
	rd, rs := inst.Rd(), inst.Rs()
	carryIn := c.regs.CPSR().C()
	currentV := c.regs.CPSR().V()
	op := inst.AluOp()

	if dpOp, ok := op.AsDataProcessingOp(); ok {
		res, n, z, cFlag, v := alu.FlagSetting(dpOp, c.readReg(rd), c.readReg(rs), carryIn, carryIn, currentV)
		c.setFlags(n, z, cFlag, v)
		if res != nil {
			c.writeReg(rd, *res)
		}
		return false, nil
	}
	if shiftType, ok := op.AsShiftType(); ok {
		amount := uint8(c.readReg(rs) & 0xFF)
		val, carryOut := shifter.ByRegister(shiftType, c.readReg(rd), amount, carryIn)
		c.writeReg(rd, val)
		c.setFlags(val&0x8000_0000 != 0, val == 0, carryOut, currentV)
		return false, nil
	}
	if op == thumbisa.ThumbNEG {
		res, n, z, cFlag, v := alu.FlagSetting(alu.RSB, c.readReg(rd), 0, carryIn, carryIn, currentV)
		c.setFlags(n, z, cFlag, v)
		c.writeReg(rd, *res)
		return false, nil
	}
	return false, &errs.InvalidThumbInstruction{Half: inst.Raw}
}

func (c *CPU) thumbHiRegOpBx(inst thumbisa.Instruction) (bool, error) {
	rd, rs := inst.HiRd(), inst.HiRs()
	switch inst.HiRegOp() {
	case thumbisa.HiADD:
		c.writeReg(rd, c.readReg(rd)+c.readReg(rs))
		return rd == 15, nil
	case thumbisa.HiMOV:
		c.writeReg(rd, c.readReg(rs))
		return rd == 15, nil
	case thumbisa.HiCMP:
		_, n, z, cFlag, v := alu.FlagSetting(alu.CMP, c.readReg(rd), c.readReg(rs), false, false, c.regs.CPSR().V())
		c.setFlags(n, z, cFlag, v)
		return false, nil
	case thumbisa.HiBX:
		target := c.readReg(rs)
		p := c.regs.CPSR()
		p.SetT(target&1 != 0)
		c.regs.SetCPSR(p)
		c.regs.SetPC(target &^ 1)
		c.flushPipeline()
		return true, nil
	default:
		return false, &errs.InvalidThumbInstruction{Half: inst.Raw}
	}
}

func (c *CPU) thumbLdrPcImm(inst thumbisa.Instruction) (bool, error) {
	base := c.regs.PC() &^ 2
	addr := base + uint32(inst.Imm10())
	v, err := c.bus.Read32(addr)
	if err != nil {
		return false, err
	}
	c.writeReg(inst.Rm8(), v)
	return false, nil
}

func (c *CPU) thumbLdrStrReg(inst thumbisa.Instruction) (bool, error) {
	addr := c.readReg(inst.Rs()) + c.readReg(inst.Rn())
	if inst.Load() {
		if inst.ByteBitReg() {
			v, err := c.bus.Read8(addr)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(v))
		} else {
			v, err := c.bus.Read32(addr)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), v)
		}
		return false, nil
	}
	if inst.ByteBitReg() {
		return false, c.bus.Write8(addr, uint8(c.readReg(inst.Rd())))
	}
	return false, c.bus.Write32(addr, c.readReg(inst.Rd()))
}

func (c *CPU) thumbLdrhStrhReg(inst thumbisa.Instruction) (bool, error) {
	addr := c.readReg(inst.Rs()) + c.readReg(inst.Rn())
	switch inst.RegHalfwordOp() {
	case thumbisa.RegStoreHalf:
		return false, c.bus.Write16(addr, uint16(c.readReg(inst.Rd())))
	case thumbisa.RegLoadSignedByte:
		v, err := c.bus.Read8(addr)
		if err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), uint32(int32(int8(v))))
	case thumbisa.RegLoadUnsignedHalf:
		v, err := c.bus.Read16(addr)
		if err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), uint32(v))
	case thumbisa.RegLoadSignedHalf:
		v, err := c.bus.Read16(addr)
		if err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), uint32(int32(int16(v))))
	}
	return false, nil
}

func (c *CPU) thumbLdrStrImm(inst thumbisa.Instruction) (bool, error) {
	scale := uint32(4)
	if inst.ByteBitImm() {
		scale = 1
	}
	addr := c.readReg(inst.Rn()) + uint32(inst.Imm5())*scale
	if inst.Load() {
		if inst.ByteBitImm() {
			v, err := c.bus.Read8(addr)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), uint32(v))
		} else {
			v, err := c.bus.Read32(addr)
			if err != nil {
				return false, err
			}
			c.writeReg(inst.Rd(), v)
		}
		return false, nil
	}
	if inst.ByteBitImm() {
		return false, c.bus.Write8(addr, uint8(c.readReg(inst.Rd())))
	}
	return false, c.bus.Write32(addr, c.readReg(inst.Rd()))
}

func (c *CPU) thumbLdrhStrhImm(inst thumbisa.Instruction) (bool, error) {
	addr := c.readReg(inst.Rn()) + uint32(inst.Imm6())
	if inst.Load() {
		v, err := c.bus.Read16(addr)
		if err != nil {
			return false, err
		}
		c.writeReg(inst.Rd(), uint32(v))
		return false, nil
	}
	return false, c.bus.Write16(addr, uint16(c.readReg(inst.Rd())))
}

func (c *CPU) thumbLdrStrSpImm(inst thumbisa.Instruction) (bool, error) {
	rd := inst.Rm8()
	addr := c.readReg(13) + uint32(inst.Imm10())
	if inst.Load() {
		v, err := c.bus.Read32(addr)
		if err != nil {
			return false, err
		}
		c.writeReg(rd, v)
		return false, nil
	}
	return false, c.bus.Write32(addr, c.readReg(rd))
}

func (c *CPU) thumbCalcAddrImm(inst thumbisa.Instruction) (bool, error) {
	rd := inst.Rm8()
	var base uint32
	if inst.UsesSP() {
		base = c.readReg(13)
	} else {
		base = c.regs.PC() &^ 2
	}
	c.writeReg(rd, base+uint32(inst.Imm10()))
	return false, nil
}

func (c *CPU) thumbAddSpOffs(inst thumbisa.Instruction) (bool, error) {
	offset := uint32(inst.Imm7()) << 2
	sp := c.readReg(13)
	if inst.SignBit() {
		c.writeReg(13, sp-offset)
	} else {
		c.writeReg(13, sp+offset)
	}
	return false, nil
}

func (c *CPU) thumbPushPopRegs(inst thumbisa.Instruction) (bool, error) {
	list := inst.RegisterList()
	count := uint32(bits.OnesCount8(list))
	if inst.PushLR() {
		count++
	}
	sp := c.readReg(13)
	flush := false

	if inst.Load() { // POP: LDMFD via SP
		addr := sp
		for r := uint8(0); r < 8; r++ {
			if list&(1<<r) == 0 {
				continue
			}
			v, err := c.bus.Read32(addr)
			if err != nil {
				return flush, err
			}
			c.writeReg(r, v)
			addr += 4
		}
		if inst.PushLR() {
			v, err := c.bus.Read32(addr)
			if err != nil {
				return flush, err
			}
			c.regs.SetPC(v &^ 1)
			addr += 4
			flush = true
			c.flushPipeline()
		}
		c.writeReg(13, addr)
		return flush, nil
	}

	// PUSH: STMFD via SP, descending, writing back before the transfer.
	addr := sp - 4*count
	c.writeReg(13, addr)
	for r := uint8(0); r < 8; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		if err := c.bus.Write32(addr, c.readReg(r)); err != nil {
			return false, err
		}
		addr += 4
	}
	if inst.PushLR() {
		if err := c.bus.Write32(addr, c.readReg(14)); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (c *CPU) thumbLdmStmRegs(inst thumbisa.Instruction) (bool, error) {
	rn := inst.Rm8()
	list := inst.RegisterList()
	count := uint32(bits.OnesCount8(list))
	base := c.readReg(rn)

	c.writeReg(rn, base+4*count)

	addr := base
	for r := uint8(0); r < 8; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		if inst.Load() {
			v, err := c.bus.Read32(addr)
			if err != nil {
				return false, err
			}
			c.writeReg(r, v)
		} else {
			if err := c.bus.Write32(addr, c.readReg(r)); err != nil {
				return false, err
			}
		}
		addr += 4
	}
	return false, nil
}

func (c *CPU) thumbSWI(inst thumbisa.Instruction) (bool, error) {
	comment := uint32(inst.Comment())
	if c.optimisedSWI && c.optimisedSWIFn != nil && c.optimisedSWIFn(comment) {
		return false, nil
	}
	c.RaiseException(ExceptionSoftwareInterrupt, c.faultPCThumb())
	return true, nil
}

func (c *CPU) thumbBranchConditionOffs(inst thumbisa.Instruction) (bool, error) {
	take, err := condition.Eval(condition.Code(inst.Condition()), c.flagsSnapshot())
	if err != nil {
		return false, err
	}
	if !take {
		return false, nil
	}
	c.regs.SetPC(uint32(int32(c.regs.PC()) + inst.BranchOffset9()))
	c.flushPipeline()
	return true, nil
}

func (c *CPU) thumbBranchOffs(inst thumbisa.Instruction) (bool, error) {
	c.regs.SetPC(uint32(int32(c.regs.PC()) + inst.BranchOffset12()))
	c.flushPipeline()
	return true, nil
}

// thumbBranchLongOffs executes one half of the two-halfword BL pair.
// The high half stashes PC + (sign-extended offset<<12) into LR; the low
// half computes the final target from LR and leaves LR pointing just past
// the pair with bit 0 set (spec section 4.10).
func (c *CPU) thumbBranchLongOffs(inst thumbisa.Instruction) (bool, error) {
	offset := inst.LongBranchOffset11()

	if inst.HighHalf() {
		extended := offset
		if extended&0x0000_0400 != 0 {
			extended |= 0xFFFF_F800
		}
		c.writeReg(14, uint32(int32(c.regs.PC())+int32(extended<<12)))
		return false, nil
	}

	lr := c.readReg(14)
	newPC := lr + (offset << 1)
	c.writeReg(14, (c.regs.PC()-2)|1)
	c.regs.SetPC(newPC)
	c.flushPipeline()
	return true, nil
}
