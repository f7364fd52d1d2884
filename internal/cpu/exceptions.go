package cpu

// Exception identifies one of the seven ARM7TDMI exception types,
// spec.md §4.7.
type Exception int

const (
	excReset Exception = iota
	excUndefined
	excSoftwareInterrupt
	excPrefetchAbort
	excDataAbort
	excIRQ
	excFIQ
)

type exceptionInfo struct {
	vector      uint32
	mode        ProcessorMode
	disableFIQ  bool
	returnOffset uint32 // added to the saved LR relative to the PC the exception interrupted
}

// exceptionTable mirrors spec.md §4.7's vector/mode/return-offset table.
var exceptionTable = map[Exception]exceptionInfo{
	excReset:             {0x00000000, ModeSupervisor, true, 0},
	excUndefined:         {0x00000004, ModeUndefined, false, 4},
	excSoftwareInterrupt: {0x00000008, ModeSupervisor, false, 4},
	excPrefetchAbort:     {0x0000000C, ModeAbort, false, 4},
	excDataAbort:         {0x00000010, ModeAbort, false, 8},
	excIRQ:               {0x00000018, ModeIRQ, false, 4},
	excFIQ:               {0x0000001C, ModeFIQ, true, 4},
}

// enterException implements exception entry per spec.md §4.7: save
// CPSR to the new mode's SPSR, save the return address (adjusted by the
// exception's documented offset) to LR, switch mode, force ARM state,
// set I (and F for Reset/FIQ), and vector to the handler — flushing the
// pipeline since PC changes.
func (c *CpuCore) enterException(e Exception) {
	info := exceptionTable[e]

	oldCPSR := c.regs.CPSR()
	// PC currently reads two instructions ahead of the one that was
	// executing when the exception condition was recognized; the return
	// offset table already accounts for that lookahead.
	returnPC := c.regs.Get(15) - 2*c.wordSize() + info.returnOffset

	c.regs.SetCPSR(PSR{
		N: oldCPSR.N, Z: oldCPSR.Z, C: oldCPSR.C, V: oldCPSR.V,
		I: true,
		F: info.disableFIQ || oldCPSR.F,
		T: StateARM,
		Mode: info.mode,
	})
	c.regs.SetSPSR(oldCPSR)
	c.regs.Set(14, returnPC)
	c.regs.Set(15, info.vector)
	c.flushPipeline()
	c.halted = false
}

// returnFromException restores CPSR from the current mode's SPSR and sets
// PC from LR (minus an instruction-specific offset the caller computes,
// typically 0 for straightforward "MOVS PC, LR" / "SUBS PC, LR, #4"
// idioms), flushing the pipeline.
func (c *CpuCore) returnFromException(pc uint32) {
	c.regs.SetCPSR(c.regs.SPSR())
	c.regs.Set(15, pc)
	c.flushPipeline()
}
