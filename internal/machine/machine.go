// Package machine wires the ARM7TDMI core, system bus, interrupt
// controller, DMA engine, timer unit and GPU timing state machine into the
// single owning value spec.md §5 describes, following the composition
// shape of the teacher's internal/emu.Machine.
package machine

import (
	"sync"

	"github.com/advance-core/gba/internal/bus"
	"github.com/advance-core/gba/internal/cart"
	"github.com/advance-core/gba/internal/cpu"
	"github.com/advance-core/gba/internal/dma"
	"github.com/advance-core/gba/internal/gpu"
	"github.com/advance-core/gba/internal/irq"
	"github.com/advance-core/gba/internal/sound"
	"github.com/advance-core/gba/internal/timer"
)

// Config configures a Machine at construction time, mirroring the
// teacher's per-component Config struct convention.
type Config struct {
	ROM        []byte
	BIOS       []byte
	Backup     cart.Backup
	Sound      sound.Controller
	Compositor gpu.ScanlineCompositor
}

// Machine owns every core component and is the one type host code
// (cmd/gbacore, cmd/armrun) drives.
type Machine struct {
	Bus   *bus.Bus
	CPU   *cpu.CpuCore
	IRQ   *irq.Controller
	DMA   *dma.Engine
	Timer *timer.Unit
	GPU   *gpu.Timing
	FIFOA *sound.FIFO
	FIFOB *sound.FIFO

	cycles uint64

	// startOnce.Do runs an empty function at the start of SkipBIOS and
	// Step; it does no start-up work and gives no ordering guarantee to a
	// goroutine that reads counters without calling it.
	startOnce sync.Once
}

// nopSound discards every sound event; used when Config.Sound is nil so
// timer/DMA FIFO wiring always has a concrete collaborator to call.
type nopSound struct{}

func (nopSound) OnTimerOverflow(int) {}
func (nopSound) WriteFIFO(int, int8) {}

// New builds a fully wired Machine from cfg. Components are constructed in
// dependency order (IRQ before DMA/Timer/GPU, which all raise interrupts;
// Bus before DMA, which transfers through it) since Go has no forward
// declarations for concrete types the way the original's Rc<RefCell<..>>
// graph allows.
func New(cfg Config) *Machine {
	backup := cfg.Backup
	if backup == nil {
		backup = cart.NopBackup{}
	}
	snd := cfg.Sound
	if snd == nil {
		snd = nopSound{}
	}

	rom := cart.NewROM(cfg.ROM)
	b := bus.New(rom, backup)
	if len(cfg.BIOS) > 0 {
		b.SetBIOS(cfg.BIOS)
	}

	ic := irq.New()
	dmaEngine := dma.New(b, ic, backup)
	timerUnit := timer.New(ic, snd)
	gpuTiming := gpu.New(dmaEngine, ic, cfg.Compositor)

	b.IRQ = ic
	b.DMA = dmaEngine
	b.Timer = timerUnit
	b.GPU = gpuTiming

	fifoA := sound.NewFIFO(dmaEngine, 0x040000A0)
	fifoB := sound.NewFIFO(dmaEngine, 0x040000A4)
	b.AttachFIFOs(fifoA, fifoB)

	core := cpu.New(b)

	return &Machine{
		Bus:   b,
		CPU:   core,
		IRQ:   ic,
		DMA:   dmaEngine,
		Timer: timerUnit,
		GPU:   gpuTiming,
		FIFOA: fifoA,
		FIFOB: fifoB,
	}
}

// SkipBIOS seeds the CPU as if the BIOS bootstrap already ran, per
// SPEC_FULL.md §5 (no-BIOS boot supplement).
func (m *Machine) SkipBIOS() {
	m.startOnce.Do(func() {})
	m.CPU.SkipBIOS()
}

// Step runs exactly one CPU instruction and returns the cycles it cost.
func (m *Machine) Step() int {
	m.startOnce.Do(func() {})
	cycles := m.CPU.Step()
	m.cycles += uint64(cycles)
	return cycles
}

// StepCycles runs Step repeatedly until at least n cycles have elapsed,
// returning the actual number of cycles consumed (always >= n, since
// instructions are not divisible).
func (m *Machine) StepCycles(n int) int {
	spent := 0
	for spent < n {
		spent += m.Step()
	}
	return spent
}

// Cycles reports the total number of CPU cycles executed so far. The
// counter is a plain field with no synchronization; a read from another
// goroutine than the one calling Step/StepCycles races with its updates.
func (m *Machine) Cycles() uint64 { return m.cycles }
