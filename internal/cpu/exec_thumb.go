package cpu

// Format 1: LSL/LSR/ASR Rd, Rs, #imm5
func execThumbMoveShiftedReg(c *CpuCore, insn uint16) int {
	rd := int(insn & 0x7)
	rs := int((insn >> 3) & 0x7)
	op := (insn >> 11) & 0x3
	amount := uint8((insn >> 6) & 0x1F)

	var shiftType ShiftType
	switch op {
	case 0:
		shiftType = ShiftLSL
	case 1:
		shiftType = ShiftLSR
	default:
		shiftType = ShiftASR
	}
	carryIn := c.regs.CPSR().C
	result, carryOut := BarrelShifter(c.regs.Get(rs), shiftType, amount, carryIn)
	c.regs.Set(rd, result)

	p := c.regs.CPSR()
	p.N, p.Z, p.C = result&(1<<31) != 0, result == 0, carryOut
	c.regs.SetCPSR(p)
	return 1
}

// Format 2: ADD/SUB Rd, Rs, Rn/#imm3
func execThumbAddSub(c *CpuCore, insn uint16) int {
	rd := int(insn & 0x7)
	rs := int((insn >> 3) & 0x7)
	immFlag := insn&(1<<10) != 0
	subFlag := insn&(1<<9) != 0
	rnOrImm := uint32((insn >> 6) & 0x7)

	op1 := c.regs.Get(rs)
	var op2 uint32
	if immFlag {
		op2 = rnOrImm
	} else {
		op2 = c.regs.Get(int(rnOrImm))
	}

	var res aluResult
	if subFlag {
		res = subtract(op1, op2, true)
	} else {
		res = add(op1, op2, false, true)
	}
	c.regs.Set(rd, res.value)
	p := c.regs.CPSR()
	p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	c.regs.SetCPSR(p)
	return 1
}

// Format 3: MOV/CMP/ADD/SUB Rd, #imm8
func execThumbDataProcessImm(c *CpuCore, insn uint16) int {
	op := (insn >> 11) & 0x3
	rd := int((insn >> 8) & 0x7)
	imm := uint32(insn & 0xFF)

	a := c.regs.Get(rd)
	p := c.regs.CPSR()
	switch op {
	case 0: // MOV
		c.regs.Set(rd, imm)
		p.N, p.Z = false, imm == 0
	case 1: // CMP
		res := subtract(a, imm, false)
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	case 2: // ADD
		res := add(a, imm, false, true)
		c.regs.Set(rd, res.value)
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	case 3: // SUB
		res := subtract(a, imm, true)
		c.regs.Set(rd, res.value)
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	}
	c.regs.SetCPSR(p)
	return 1
}

// Format 4: ALU operations, Rd, Rs (both operands in r0-r7)
func execThumbALUOps(c *CpuCore, insn uint16) int {
	rd := int(insn & 0x7)
	rs := int((insn >> 3) & 0x7)
	op := (insn >> 6) & 0xF

	dst := c.regs.Get(rd)
	src := c.regs.Get(rs)
	p := c.regs.CPSR()
	cycles := 1

	var result uint32
	writesBack := true
	switch op {
	case 0x0: // AND
		result = dst & src
		p.N, p.Z = result&(1<<31) != 0, result == 0
	case 0x1: // EOR
		result = dst ^ src
		p.N, p.Z = result&(1<<31) != 0, result == 0
	case 0x2: // LSL
		result, p.C = BarrelShifter(dst, ShiftLSL, uint8(src&0xFF), p.C)
		p.N, p.Z = result&(1<<31) != 0, result == 0
		cycles++
	case 0x3: // LSR
		result, p.C = BarrelShifter(dst, ShiftLSR, uint8(src&0xFF), p.C)
		p.N, p.Z = result&(1<<31) != 0, result == 0
		cycles++
	case 0x4: // ASR
		result, p.C = BarrelShifter(dst, ShiftASR, uint8(src&0xFF), p.C)
		p.N, p.Z = result&(1<<31) != 0, result == 0
		cycles++
	case 0x5: // ADC
		res := add(dst, src, p.C, true)
		result = res.value
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	case 0x6: // SBC
		res := subtractCarry(dst, src, p.C, true)
		result = res.value
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	case 0x7: // ROR
		result, p.C = BarrelShifter(dst, ShiftROR, uint8(src&0xFF), p.C)
		p.N, p.Z = result&(1<<31) != 0, result == 0
		cycles++
	case 0x8: // TST
		result = dst & src
		p.N, p.Z = result&(1<<31) != 0, result == 0
		writesBack = false
	case 0x9: // NEG
		res := subtract(0, src, true)
		result = res.value
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
	case 0xA: // CMP
		res := subtract(dst, src, false)
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
		writesBack = false
	case 0xB: // CMN
		res := add(dst, src, false, false)
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
		writesBack = false
	case 0xC: // ORR
		result = dst | src
		p.N, p.Z = result&(1<<31) != 0, result == 0
	case 0xD: // MUL
		result = dst * src
		p.N, p.Z = result&(1<<31) != 0, result == 0
		cycles += multiplyCycles(src)
	case 0xE: // BIC
		result = dst &^ src
		p.N, p.Z = result&(1<<31) != 0, result == 0
	case 0xF: // MVN
		result = ^src
		p.N, p.Z = result&(1<<31) != 0, result == 0
	}
	if writesBack {
		c.regs.Set(rd, result)
	}
	c.regs.SetCPSR(p)
	return cycles
}

// Format 5: hi-register operations and branch/exchange
func execThumbHiRegOpBX(c *CpuCore, insn uint16) int {
	op := (insn >> 8) & 0x3
	h1 := insn&(1<<7) != 0
	h2 := insn&(1<<6) != 0
	rd := int(insn & 0x7)
	rs := int((insn >> 3) & 0x7)
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}

	switch op {
	case 0x0: // ADD
		c.regs.Set(rd, c.regs.Get(rd)+c.regs.Get(rs))
		if rd == 15 {
			c.flushPipeline()
			return 3
		}
		return 1
	case 0x1: // CMP
		res := subtract(c.regs.Get(rd), c.regs.Get(rs), false)
		p := c.regs.CPSR()
		p.N, p.Z, p.C, p.V = res.n, res.z, res.c, res.v
		c.regs.SetCPSR(p)
		return 1
	case 0x2: // MOV
		c.regs.Set(rd, c.regs.Get(rs))
		if rd == 15 {
			c.flushPipeline()
			return 3
		}
		return 1
	default: // BX
		target := c.regs.Get(rs)
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
}

// Format 6: PC-relative load (literal pool)
func execThumbLdrPCRel(c *CpuCore, insn uint16) int {
	rd := int((insn >> 8) & 0x7)
	offset := uint32(insn&0xFF) * 4
	addr := (c.regs.Get(15) &^ 3) + offset
	c.regs.Set(rd, c.bus.Read32(addr))
	return 3
}

// Format 7: load/store with register offset
func execThumbLdrStrReg(c *CpuCore, insn uint16) int {
	ro := int((insn >> 6) & 0x7)
	rb := int((insn >> 3) & 0x7)
	rd := int(insn & 0x7)
	load := insn&(1<<11) != 0
	byteWide := insn&(1<<10) != 0

	addr := c.regs.Get(rb) + c.regs.Get(ro)
	if load {
		if byteWide {
			c.regs.Set(rd, uint32(c.bus.Read8(addr)))
		} else {
			c.regs.Set(rd, rotatedRead32(c.bus, addr))
		}
		return 3
	}
	if byteWide {
		c.bus.Write8(addr, byte(c.regs.Get(rd)))
	} else {
		c.bus.Write32(addr, c.regs.Get(rd))
	}
	return 2
}

// Format 8: load/store sign-extended byte/halfword
func execThumbLdrStrSignExt(c *CpuCore, insn uint16) int {
	ro := int((insn >> 6) & 0x7)
	rb := int((insn >> 3) & 0x7)
	rd := int(insn & 0x7)
	h := insn&(1<<11) != 0
	s := insn&(1<<10) != 0

	addr := c.regs.Get(rb) + c.regs.Get(ro)
	switch {
	case !s && !h: // STRH
		c.bus.Write16(addr, uint16(c.regs.Get(rd)))
		return 2
	case !s && h: // LDRH
		c.regs.Set(rd, uint32(c.bus.Read16(addr)))
	case s && !h: // LDSB
		c.regs.Set(rd, uint32(int32(int8(c.bus.Read8(addr)))))
	default: // LDSH
		c.regs.Set(rd, uint32(int32(int16(c.bus.Read16(addr)))))
	}
	return 3
}

// Format 9: load/store with 5-bit immediate offset
func execThumbLdrStrImm(c *CpuCore, insn uint16) int {
	rb := int((insn >> 3) & 0x7)
	rd := int(insn & 0x7)
	byteWide := insn&(1<<12) != 0
	load := insn&(1<<11) != 0
	offset := uint32((insn >> 6) & 0x1F)
	if !byteWide {
		offset *= 4
	}

	addr := c.regs.Get(rb) + offset
	if load {
		if byteWide {
			c.regs.Set(rd, uint32(c.bus.Read8(addr)))
		} else {
			c.regs.Set(rd, rotatedRead32(c.bus, addr))
		}
		return 3
	}
	if byteWide {
		c.bus.Write8(addr, byte(c.regs.Get(rd)))
	} else {
		c.bus.Write32(addr, c.regs.Get(rd))
	}
	return 2
}

// Format 10: load/store halfword with 5-bit immediate offset
func execThumbLdrStrHalfword(c *CpuCore, insn uint16) int {
	rb := int((insn >> 3) & 0x7)
	rd := int(insn & 0x7)
	load := insn&(1<<11) != 0
	offset := uint32((insn>>6)&0x1F) * 2

	addr := c.regs.Get(rb) + offset
	if load {
		c.regs.Set(rd, uint32(c.bus.Read16(addr)))
		return 3
	}
	c.bus.Write16(addr, uint16(c.regs.Get(rd)))
	return 2
}

// Format 11: SP-relative load/store
func execThumbLdrStrSP(c *CpuCore, insn uint16) int {
	rd := int((insn >> 8) & 0x7)
	load := insn&(1<<11) != 0
	offset := uint32(insn&0xFF) * 4
	addr := c.regs.Get(13) + offset

	if load {
		c.regs.Set(rd, rotatedRead32(c.bus, addr))
		return 3
	}
	c.bus.Write32(addr, c.regs.Get(rd))
	return 2
}

// Format 12: load address from PC or SP
func execThumbLoadAddress(c *CpuCore, insn uint16) int {
	rd := int((insn >> 8) & 0x7)
	useSP := insn&(1<<11) != 0
	offset := uint32(insn&0xFF) * 4

	if useSP {
		c.regs.Set(rd, c.regs.Get(13)+offset)
	} else {
		c.regs.Set(rd, (c.regs.Get(15)&^2)+offset)
	}
	return 1
}

// Format 13: add offset to stack pointer
func execThumbAddSP(c *CpuCore, insn uint16) int {
	sign := insn&(1<<7) != 0
	offset := uint32(insn&0x7F) * 4
	if sign {
		c.regs.Set(13, c.regs.Get(13)-offset)
	} else {
		c.regs.Set(13, c.regs.Get(13)+offset)
	}
	return 1
}

// Format 14: PUSH/POP register list (optionally including LR/PC)
func execThumbPushPop(c *CpuCore, insn uint16) int {
	pop := insn&(1<<11) != 0
	withExtra := insn&(1<<8) != 0
	list := insn & 0xFF

	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}
	if withExtra {
		count++
	}

	if pop {
		sp := c.regs.Get(13)
		for i := 0; i < 8; i++ {
			if list&(1<<uint(i)) != 0 {
				c.regs.Set(i, rotatedRead32(c.bus, sp))
				sp += 4
			}
		}
		if withExtra {
			pc := rotatedRead32(c.bus, sp)
			sp += 4
			c.regs.Set(15, pc&^1)
			c.flushPipeline()
		}
		c.regs.Set(13, sp)
		return count + 2
	}

	sp := c.regs.Get(13) - uint32(count)*4
	base := sp
	c.regs.Set(13, sp)
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			c.bus.Write32(base, c.regs.Get(i))
			base += 4
		}
	}
	if withExtra {
		c.bus.Write32(base, c.regs.Get(14))
	}
	return count + 1
}

// Format 15: multiple load/store via a low-register base
func execThumbLdmStm(c *CpuCore, insn uint16) int {
	rb := int((insn >> 8) & 0x7)
	load := insn&(1<<11) != 0
	list := insn & 0xFF

	base := c.regs.Get(rb)
	addr := base
	count := uint32(0)
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}
	if count == 0 {
		// Empty-list edge case mirrors the ARM block-transfer formula
		// (spec.md §4.5): r15 alone, base advances by 0x40.
		if load {
			c.regs.Set(15, rotatedRead32(c.bus, addr)&^1)
			c.flushPipeline()
		} else {
			c.bus.Write32(addr, c.regs.Get(15))
		}
		c.regs.Set(rb, base+0x40)
		return 3
	}

	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			if load {
				c.regs.Set(i, rotatedRead32(c.bus, addr))
			} else {
				c.bus.Write32(addr, c.regs.Get(i))
			}
			addr += 4
		}
	}
	if !load || list&(1<<uint(rb)) == 0 {
		c.regs.Set(rb, addr)
	}
	return int(count) + 2
}

// Format 16: conditional branch
func execThumbBranchCond(c *CpuCore, insn uint16) int {
	cond := Condition((insn >> 8) & 0xF)
	if !checkCondition(cond, c.regs.CPSR()) {
		return 1
	}
	offset := int32(int8(insn&0xFF)) * 2
	c.regs.Set(15, uint32(int32(c.regs.Get(15))+offset))
	c.flushPipeline()
	return 3
}

// Format 17: software interrupt
func execThumbSWIHandler(c *CpuCore, insn uint16) int {
	c.enterException(excSoftwareInterrupt)
	return 3
}

// Format 18: unconditional branch
func execThumbBranch(c *CpuCore, insn uint16) int {
	offset11 := insn & 0x7FF
	simm := (int32(offset11) << 21) >> 20 // sign-extend 11 bits, then x2
	c.regs.Set(15, uint32(int32(c.regs.Get(15))+simm))
	c.flushPipeline()
	return 3
}

// Format 19: branch-and-link, split across two 16-bit instructions
func execThumbBranchLongLink(c *CpuCore, insn uint16) int {
	low := insn&(1<<11) != 0
	offset11 := uint32(insn & 0x7FF)

	if !low {
		simm := (int32(offset11) << 21) >> 9 // sign-extend 11 bits, shift left 12
		c.regs.Set(14, uint32(int32(c.regs.Get(15))+simm))
		return 1
	}
	nextInsn := (c.regs.Get(15) - 2) | 1
	target := c.regs.Get(14) + offset11*2
	c.regs.Set(15, target)
	c.regs.Set(14, nextInsn)
	c.flushPipeline()
	return 3
}

func execThumbUndefined(c *CpuCore, insn uint16) int {
	c.enterException(excUndefined)
	return 3
}
