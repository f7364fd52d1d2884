package cpu

// Bus is the memory surface CpuCore needs. internal/bus.Bus satisfies this
// interface structurally; CpuCore never imports internal/bus directly so
// the dependency only runs one way (internal/machine wires the concrete
// bus into a CpuCore).
type Bus interface {
	Read8(addr uint32) byte
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v byte)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)

	Cycles16(addr uint32, kind int) int
	Cycles32(addr uint32, kind int) int

	SetLastFetched(v uint32)
	// SetPC reports the address the core is fetching from, so the bus can
	// gate BIOS reads on whether the CPU is actually executing there
	// (spec.md §4.1).
	SetPC(pc uint32)

	// InterruptPending reports whether IME && IE&IF != 0; CpuCore takes
	// the IRQ exception at the next instruction boundary when this holds
	// and CPSR.I is clear.
	InterruptPending() bool
	// InterruptWakesHalt reports whether a halted CPU should resume,
	// which ignores IME (spec.md §5, §9 HALTCNT open question).
	InterruptWakesHalt() bool

	// Tick advances every cycle-driven collaborator (DMA/Timer/GPU) by
	// the given number of CPU cycles; CpuCore calls this once per
	// instruction with the cycles it consumed, per spec.md §5.
	Tick(cycles int)
}

// Access kind constants, mirrored from internal/bus to avoid an import
// cycle (internal/bus doesn't need to know about internal/cpu).
const (
	BusNonSeq = 0
	BusSeq    = 1
)
