package cpu

// operand2 computes the ARM data-processing/PSR-transfer second operand:
// either a rotated 8-bit immediate or a barrel-shifted register, returning
// the shifter's carry-out (used only when the instruction's S bit is set
// and the op is logical, per spec.md §4.4).
func (c *CpuCore) operand2(insn uint32) (value uint32, carryOut bool) {
	carryIn := c.regs.CPSR().C
	if insn&(1<<25) != 0 {
		imm := insn & 0xFF
		rot := uint8((insn>>8)&0xF) * 2
		if rot == 0 {
			return imm, carryIn
		}
		return BarrelShifter(imm, ShiftROR, rot, carryIn)
	}

	rm := insn & 0xF
	value = c.regs.Get(int(rm))
	shiftType := ShiftType((insn >> 5) & 0x3)

	var amount uint8
	if insn&(1<<4) != 0 {
		rs := (insn >> 8) & 0xF
		amount = uint8(c.regs.Get(int(rs)) & 0xFF)
		if rm == 15 {
			value += c.wordSize() // register-specified shift reads PC one word further ahead
		}
		if amount == 0 {
			return value, carryIn
		}
	} else {
		amount = uint8((insn >> 7) & 0x1F)
	}
	return BarrelShifter(value, shiftType, amount, carryIn)
}

func execDataProcessing(c *CpuCore, insn uint32) int {
	op := AluOp((insn >> 21) & 0xF)
	s := insn&(1<<20) != 0
	rn := int((insn >> 16) & 0xF)
	rd := int((insn >> 12) & 0xF)

	op2, shifterCarry := c.operand2(insn)
	a := c.regs.Get(rn)
	res := ALU(op, a, op2, shifterCarry, c.regs.CPSR().C)

	if res.writesBack {
		if rd == 15 && s {
			// Restoring CPSR from SPSR is the documented way to return
			// from an exception via a flagged data-processing op
			// (e.g. "MOVS PC, LR"); plain writes to PC just branch.
			c.regs.Set(15, res.value)
			c.regs.SetCPSR(c.regs.SPSR())
			c.flushPipeline()
			return 2
		}
		c.regs.Set(rd, res.value)
		if rd == 15 {
			c.flushPipeline()
		}
	}
	if s && rd != 15 {
		p := c.regs.CPSR()
		p.N, p.Z, p.C = res.n, res.z, res.c
		if !isLogical(op) {
			p.V = res.v
		}
		c.regs.SetCPSR(p)
	}
	return 1
}

func execMRS(c *CpuCore, insn uint32) int {
	rd := int((insn >> 12) & 0xF)
	useSPSR := insn&(1<<22) != 0
	if useSPSR {
		c.regs.Set(rd, c.regs.SPSR().Pack())
	} else {
		c.regs.Set(rd, c.regs.CPSR().Pack())
	}
	return 1
}

func execMSR(c *CpuCore, insn uint32) int {
	useSPSR := insn&(1<<22) != 0
	flagsOnly := insn&(1<<16) == 0

	var value uint32
	if insn&(1<<25) != 0 {
		imm := insn & 0xFF
		rot := uint8((insn>>8)&0xF) * 2
		value, _ = BarrelShifter(imm, ShiftROR, rot, false)
	} else {
		value = c.regs.Get(int(insn & 0xF))
	}

	target := c.regs.CPSR()
	if useSPSR {
		target = c.regs.SPSR()
	}
	if flagsOnly {
		target.N = value&(1<<31) != 0
		target.Z = value&(1<<30) != 0
		target.C = value&(1<<29) != 0
		target.V = value&(1<<28) != 0
	} else {
		target.Unpack(value)
	}
	if useSPSR {
		c.regs.SetSPSR(target)
	} else {
		c.regs.SetCPSR(target)
	}
	return 1
}

func execMultiply(c *CpuCore, insn uint32) int {
	rd := int((insn >> 16) & 0xF)
	rn := int((insn >> 12) & 0xF)
	rs := int((insn >> 8) & 0xF)
	rm := int(insn & 0xF)
	accumulate := insn&(1<<21) != 0
	s := insn&(1<<20) != 0

	result := c.regs.Get(rm) * c.regs.Get(rs)
	if accumulate {
		result += c.regs.Get(rn)
	}
	c.regs.Set(rd, result)
	if s {
		p := c.regs.CPSR()
		p.N = result&(1<<31) != 0
		p.Z = result == 0
		c.regs.SetCPSR(p)
	}
	return 1 + multiplyCycles(c.regs.Get(rs))
}

func execMultiplyLong(c *CpuCore, insn uint32) int {
	rdHi := int((insn >> 16) & 0xF)
	rdLo := int((insn >> 12) & 0xF)
	rs := int((insn >> 8) & 0xF)
	rm := int(insn & 0xF)
	signed := insn&(1<<22) != 0
	accumulate := insn&(1<<21) != 0
	s := insn&(1<<20) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.regs.Get(rm))) * int64(int32(c.regs.Get(rs))))
	} else {
		result = uint64(c.regs.Get(rm)) * uint64(c.regs.Get(rs))
	}
	if accumulate {
		result += uint64(c.regs.Get(rdHi))<<32 | uint64(c.regs.Get(rdLo))
	}
	c.regs.Set(rdLo, uint32(result))
	c.regs.Set(rdHi, uint32(result>>32))
	if s {
		p := c.regs.CPSR()
		p.N = result&(1<<63) != 0
		p.Z = result == 0
		c.regs.SetCPSR(p)
	}
	return 2 + multiplyCycles(c.regs.Get(rs))
}

func execSingleDataSwap(c *CpuCore, insn uint32) int {
	rn := int((insn >> 16) & 0xF)
	rd := int((insn >> 12) & 0xF)
	rm := int(insn & 0xF)
	byteWide := insn&(1<<22) != 0

	addr := c.regs.Get(rn)
	if byteWide {
		old := c.bus.Read8(addr)
		c.bus.Write8(addr, byte(c.regs.Get(rm)))
		c.regs.Set(rd, uint32(old))
	} else {
		old := rotatedRead32(c.bus, addr)
		c.bus.Write32(addr, c.regs.Get(rm))
		c.regs.Set(rd, old)
	}
	return 2
}

func execBranchExchange(c *CpuCore, insn uint32) int {
	rm := int(insn & 0xF)
	target := c.regs.Get(rm)
	p := c.regs.CPSR()
	if target&1 != 0 {
		p.T = StateTHUMB
	} else {
		p.T = StateARM
	}
	c.regs.SetCPSR(p)
	c.regs.Set(15, target&^1)
	c.flushPipeline()
	return 3
}

func execBranch(c *CpuCore, insn uint32) int {
	link := insn&(1<<24) != 0
	offset := insn & 0xFFFFFF
	simm := int32(offset << 8) >> 8 // sign-extend 24-bit to 32-bit
	target := uint32(int32(c.regs.Get(15)) + simm*4)

	if link {
		c.regs.Set(14, c.regs.Get(15)-4)
	}
	c.regs.Set(15, target)
	c.flushPipeline()
	return 3
}

func execSoftwareInterruptARM(c *CpuCore, insn uint32) int {
	c.enterException(excSoftwareInterrupt)
	return 3
}

func execUndefinedARM(c *CpuCore, insn uint32) int {
	c.enterException(excUndefined)
	return 3
}

// rotatedRead32 performs a 32-bit load with the GBA's documented
// misaligned-access behavior (spec.md §4.5/§8 property 6): the word is
// read from the aligned base and then rotated right by 8 bits per byte of
// misalignment, rather than faulting.
func rotatedRead32(bus Bus, addr uint32) uint32 {
	aligned := addr &^ 3
	v := bus.Read32(aligned)
	rot := (addr & 3) * 8
	if rot == 0 {
		return v
	}
	result, _ := BarrelShifter(v, ShiftROR, uint8(rot), false)
	return result
}

func execSingleDataTransfer(c *CpuCore, insn uint32) int {
	rn := int((insn >> 16) & 0xF)
	rd := int((insn >> 12) & 0xF)
	load := insn&(1<<20) != 0
	byteWide := insn&(1<<22) != 0
	up := insn&(1<<23) != 0
	pre := insn&(1<<24) != 0
	writeback := insn&(1<<21) != 0 || !pre
	immediate := insn&(1<<25) == 0

	var offset uint32
	if immediate {
		offset = insn & 0xFFF
	} else {
		rm := insn & 0xF
		shiftType := ShiftType((insn >> 5) & 0x3)
		amount := uint8((insn >> 7) & 0x1F)
		offset, _ = BarrelShifter(c.regs.Get(int(rm)), shiftType, amount, c.regs.CPSR().C)
	}

	base := c.regs.Get(rn)
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	var cycles int
	if load {
		if byteWide {
			c.regs.Set(rd, uint32(c.bus.Read8(addr)))
		} else {
			c.regs.Set(rd, rotatedRead32(c.bus, addr))
		}
		cycles = 3
		if rd == 15 {
			c.flushPipeline()
		}
	} else {
		if byteWide {
			c.bus.Write8(addr, byte(c.regs.Get(rd)))
		} else {
			c.bus.Write32(addr, c.regs.Get(rd))
		}
		cycles = 2
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}
	if writeback && !(load && rd == rn) {
		c.regs.Set(rn, addr)
	}
	return cycles
}

func execHalfwordTransfer(c *CpuCore, insn uint32) int {
	rn := int((insn >> 16) & 0xF)
	rd := int((insn >> 12) & 0xF)
	load := insn&(1<<20) != 0
	up := insn&(1<<23) != 0
	pre := insn&(1<<24) != 0
	writeback := insn&(1<<21) != 0 || !pre
	immOffset := insn&(1<<22) != 0
	sh := (insn >> 5) & 0x3 // 01=halfword 10=signed byte 11=signed halfword

	var offset uint32
	if immOffset {
		offset = ((insn >> 4) & 0xF0) | (insn & 0xF)
	} else {
		offset = c.regs.Get(int(insn & 0xF))
	}

	base := c.regs.Get(rn)
	addr := base
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		switch sh {
		case 0x1:
			c.regs.Set(rd, uint32(c.bus.Read16(addr)))
		case 0x2:
			c.regs.Set(rd, uint32(int32(int8(c.bus.Read8(addr)))))
		case 0x3:
			c.regs.Set(rd, uint32(int32(int16(c.bus.Read16(addr)))))
		}
	} else {
		c.bus.Write16(addr, uint16(c.regs.Get(rd)))
	}

	if !pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}
	if writeback && !(load && rd == rn) {
		c.regs.Set(rn, addr)
	}
	if load {
		return 3
	}
	return 2
}

func execBlockDataTransfer(c *CpuCore, insn uint32) int {
	rn := int((insn >> 16) & 0xF)
	load := insn&(1<<20) != 0
	writeback := insn&(1<<21) != 0
	userBank := insn&(1<<22) != 0
	up := insn&(1<<23) != 0
	pre := insn&(1<<24) != 0
	list := insn & 0xFFFF

	regsToXfer := []int{}
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) != 0 {
			regsToXfer = append(regsToXfer, i)
		}
	}

	base := c.regs.Get(rn)
	count := uint32(len(regsToXfer))
	if count == 0 {
		// Empty-list edge case (spec.md §4.5): transfer r15 only, and the
		// base still advances by the full 0x40 in the direction up implies,
		// matching the original's empty-list formula.
		xferAddr := base
		if !up {
			xferAddr = base - 0x40
		}
		if load {
			c.regs.Set(15, rotatedRead32(c.bus, xferAddr))
			c.flushPipeline()
		} else {
			c.bus.Write32(xferAddr, c.regs.Get(15))
		}
		if up {
			c.regs.Set(rn, base+0x40)
		} else {
			c.regs.Set(rn, base-0x40)
		}
		return 3
	}

	// Registers always transfer in ascending order to ascending addresses;
	// only the lowest address used (low) depends on the up/pre combination
	// (the four IA/IB/DA/DB addressing modes).
	var low uint32
	switch {
	case up && !pre:
		low = base
	case up && pre:
		low = base + 4
	case !up && !pre:
		low = base - (count-1)*4
	default:
		low = base - count*4
	}

	for idx, r := range regsToXfer {
		xferAddr := low + uint32(idx)*4
		reg := r
		if userBank && !(load && r == 15) {
			if load {
				c.regs.SetUser(reg, rotatedRead32(c.bus, xferAddr))
			} else {
				c.bus.Write32(xferAddr, c.regs.GetUser(reg))
			}
		} else {
			if load {
				c.regs.Set(reg, rotatedRead32(c.bus, xferAddr))
				if reg == 15 {
					c.flushPipeline()
				}
			} else {
				c.bus.Write32(xferAddr, c.regs.Get(reg))
			}
		}
	}

	// Writeback is suppressed when the base register is among the loaded
	// registers: the loaded value must stand, not the computed new base.
	baseLoaded := load && list&(1<<uint(rn)) != 0
	if writeback && !baseLoaded {
		if up {
			c.regs.Set(rn, base+count*4)
		} else {
			c.regs.Set(rn, base-count*4)
		}
	}
	return int(count) + 1
}
