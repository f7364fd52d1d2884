// Package cpu implements the ARM7TDMI interpreter core: registers, PSR,
// barrel shifter, ALU, the precomputed ARM/THUMB decode tables, and the
// two-stage-pipeline Step loop, per spec.md §3-§4 and §8.
package cpu

// CpuCore is the ARM7TDMI interpreter. It owns no memory itself; all loads
// and stores go through the Bus it was constructed with.
type CpuCore struct {
	regs     *RegisterFile
	pipeline PipelineState
	bus      Bus
	halted   bool
}

// New returns a CpuCore wired to bus, reset to the ARM7TDMI power-on state
// (Supervisor mode, IRQ/FIQ masked, ARM state, PC=0).
func New(bus Bus) *CpuCore {
	c := &CpuCore{regs: NewRegisterFile(), bus: bus}
	c.reset()
	return c
}

func (c *CpuCore) reset() {
	c.regs.Set(15, 0)
	c.pipeline.flush()
}

// SkipBIOS seeds the register file the way a BIOS bootstrap would have
// left it by the time it jumps to cartridge code at 0x08000000 — a
// supplemented feature (DESIGN.md / SPEC_FULL.md §5) recovered from the
// original's skip_bios path, since spec.md itself is silent on what "no
// BIOS" boot state looks like.
func (c *CpuCore) SkipBIOS() {
	c.regs.banked.r13[bankIndex(ModeSupervisor)] = 0x03007FE0
	c.regs.banked.r13[bankIndex(ModeIRQ)] = 0x03007FA0
	c.regs.banked.r13[bankIndex(ModeUser)] = 0x03007F00
	c.regs.cpsr = PSR{F: true, Mode: ModeSystem, T: StateARM}
	c.regs.r[13] = 0x03007F00
	c.regs.Set(15, 0x08000000)
	c.pipeline.flush()
}

// PC returns the address of the instruction the pipeline is currently
// fetching into (r15, which always reads two instructions ahead of the
// one executing — ARM7TDMI's documented "PC is always +8/+4" behavior).
func (c *CpuCore) PC() uint32 { return c.regs.Get(15) }

// Regs exposes the register file for test harnesses and the root Machine
// (e.g. trace printing); not part of the documented instruction-execution
// surface.
func (c *CpuCore) Regs() *RegisterFile { return c.regs }

func (c *CpuCore) wordSize() uint32 {
	if c.regs.cpsr.T == StateTHUMB {
		return 2
	}
	return 4
}

// Step runs one pipeline cycle and returns the number of cycles it
// consumed, after ticking the bus-owned collaborators (DMA/Timer/GPU)
// by that many cycles. This mirrors the original's Core::step: fetch the
// next instruction into pipeline[1], shift, then evaluate the ARM
// condition field (if any) of the word now in pipeline[0] *before*
// touching the decode table, and only then decode+execute it. The first
// step after a pipeline flush only refills the pipeline and executes
// nothing.
func (c *CpuCore) Step() int {
	if c.halted {
		if c.bus.InterruptWakesHalt() {
			c.halted = false
		} else {
			c.bus.Tick(1)
			return 1
		}
	}

	if !c.regs.cpsr.I && c.bus.InterruptPending() {
		c.enterException(excIRQ)
	}

	cycles := c.fetchAndExecute()
	c.bus.Tick(cycles)
	return cycles
}

// fetchAndExecute performs one pipeline cycle: fetch into pipeline[1],
// shift pipeline[0] in, decode+run it, and return the cycles spent.
func (c *CpuCore) fetchAndExecute() int {
	pc := c.regs.Get(15)
	size := c.wordSize()
	c.bus.SetPC(pc)

	var fetched uint32
	var fetchCycles int
	if c.regs.cpsr.T == StateTHUMB {
		fetched = uint32(c.bus.Read16(pc))
		fetchCycles = c.bus.Cycles16(pc, c.pipeline.nextFetchAccess)
	} else {
		fetched = c.bus.Read32(pc)
		fetchCycles = c.bus.Cycles32(pc, c.pipeline.nextFetchAccess)
	}
	c.bus.SetLastFetched(fetched)

	// A NonSeq hint means the pipeline was just flushed: pipeline[0] holds
	// no fetched instruction yet, so this step only refills the pipeline.
	refilling := c.pipeline.nextFetchAccess == BusNonSeq
	executing := c.pipeline.word[0]
	c.pipeline.word[0] = c.pipeline.word[1]
	c.pipeline.word[1] = fetched
	_ = executing // the word executed on the previous step, shifted out

	current := c.pipeline.word[0]
	c.regs.Set(15, pc+size)
	c.pipeline.nextFetchAccess = BusSeq
	if refilling {
		return fetchCycles
	}

	var execCycles int
	if c.regs.cpsr.T == StateTHUMB {
		execCycles = c.executeThumb(uint16(current))
	} else {
		execCycles = c.executeArm(current)
	}
	return fetchCycles + execCycles
}

// flushPipeline is called by any instruction that changes PC outside of
// the normal +size advance (branches, data-processing writes to r15,
// exception entry/return): it discards the stale pipeline contents and
// marks the next fetch as non-sequential (the one after it is sequential).
func (c *CpuCore) flushPipeline() {
	c.pipeline.flush()
}
