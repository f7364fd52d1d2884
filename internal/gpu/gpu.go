// Package gpu models GBA video timing only: the HDraw/HBlank/VBlank state
// machine, DISPSTAT/VCOUNT registers, and the DMA/scanline-compositor
// notification hooks fired at each state transition. Pixel compositing is
// an explicit non-goal and lives entirely behind the ScanlineCompositor
// interface this package calls into.
package gpu

import (
	"bytes"
	"encoding/gob"
)

// State identifies which phase of the 228-line frame the GPU is in.
type State int

const (
	HDraw State = iota
	HBlankState
	VBlankHDraw
	VBlankHBlank
)

// Per-state cycle lengths. A full scanline is 1232 cycles (960 draw + 272
// blank); VBlank reuses the same per-line split across lines 160..227.
const (
	cyclesHDraw        = 960 + 46
	cyclesHBlank       = 272 - 46
	cyclesVBlankHDraw  = cyclesHDraw
	cyclesVBlankHBlank = cyclesHBlank

	CyclesPerScanline  = cyclesHDraw + cyclesHBlank
	VisibleLines       = 160
	TotalLines         = 228
	CyclesFullRefresh  = CyclesPerScanline * TotalLines
)

// DmaNotifier is the subset of internal/dma.Engine GpuTiming drives.
type DmaNotifier interface {
	NotifyHBlank()
	NotifyVBlank()
}

// IRQRaiser is satisfied by internal/irq.Controller.
type IRQRaiser interface {
	Raise(source int)
}

// ScanlineCompositor is the external collaborator contract from spec.md §6:
// GpuTiming calls RenderLine once per visible scanline, at the HBlank→HDraw
// edge (after VCOUNT has advanced to the line now being drawn), including
// the VBlankHBlank→HDraw wraparound that renders line 0, handing off to a
// renderer this package does not implement.
type ScanlineCompositor interface {
	RenderLine(vcount int)
}

const (
	irqHBlank = 1 // irq.HBlank
	irqVBlank = 0 // irq.VBlank
	irqVCount = 2 // irq.VCount
)

// Timing is the GpuTiming component: a pure state machine over the
// 280896-cycle frame, with no pixel buffer of its own.
type Timing struct {
	state  State
	vcount int
	cycles int // cycles elapsed in the current state

	dispstat uint16 // bits: 0 vblank-flag 1 hblank-flag 2 vcount-flag 3 vblank-irq-en 4 hblank-irq-en 5 vcount-irq-en; 8-15 vcount-setting

	dma        DmaNotifier
	irqc       IRQRaiser
	compositor ScanlineCompositor
}

// New returns a Timing machine starting at the top of HDraw for line 0.
func New(dma DmaNotifier, ic IRQRaiser, compositor ScanlineCompositor) *Timing {
	return &Timing{dma: dma, irqc: ic, compositor: compositor}
}

// VCount returns the current scanline (0..227).
func (g *Timing) VCount() int { return g.vcount }

// CurrentState returns the active FSM state.
func (g *Timing) CurrentState() State { return g.state }

// Tick advances the state machine by `cycles` CPU cycles, firing
// transition side effects (DMA notify, IRQ, compositor callback, VCOUNT
// compare) exactly when a state boundary is crossed.
func (g *Timing) Tick(cycles int) {
	for cycles > 0 {
		remaining := g.stateLength() - g.cycles
		step := cycles
		if step > remaining {
			step = remaining
		}
		g.cycles += step
		cycles -= step
		if g.cycles >= g.stateLength() {
			g.cycles = 0
			g.advanceState()
		}
	}
}

func (g *Timing) stateLength() int {
	switch g.state {
	case HDraw:
		return cyclesHDraw
	case HBlankState:
		return cyclesHBlank
	case VBlankHDraw:
		return cyclesVBlankHDraw
	default:
		return cyclesVBlankHBlank
	}
}

// advanceState implements the 4-state transition graph from spec.md §4.11:
// HDraw -> HBlank -> {HDraw on next visible line, or VBlankHDraw at line 160}
// -> VBlankHBlank -> VBlankHDraw (or back to HDraw wrapping to line 0).
func (g *Timing) advanceState() {
	switch g.state {
	case HDraw:
		g.enterHBlank()
	case HBlankState:
		g.vcount++
		if g.vcount >= VisibleLines {
			g.enterVBlank()
		} else {
			g.enterHDraw()
		}
	case VBlankHDraw:
		g.enterVBlankHBlank()
	case VBlankHBlank:
		g.vcount++
		if g.vcount >= TotalLines {
			g.vcount = 0
			g.enterHDraw()
		} else {
			g.state = VBlankHDraw
			g.updateVCountFlag()
		}
	}
}

func (g *Timing) enterHDraw() {
	g.state = HDraw
	g.setHBlankFlag(false)
	g.updateVCountFlag()
	if g.compositor != nil && g.vcount < VisibleLines {
		g.compositor.RenderLine(g.vcount)
	}
}

func (g *Timing) enterHBlank() {
	g.state = HBlankState
	g.setHBlankFlag(true)
	if g.dispstat&(1<<4) != 0 {
		g.raiseIRQ(irqHBlank)
	}
	if g.dma != nil {
		g.dma.NotifyHBlank()
	}
}

func (g *Timing) enterVBlank() {
	g.state = VBlankHDraw
	g.setHBlankFlag(false)
	g.setVBlankFlag(true)
	if g.dispstat&(1<<3) != 0 {
		g.raiseIRQ(irqVBlank)
	}
	if g.dma != nil {
		g.dma.NotifyVBlank()
	}
	g.updateVCountFlag()
}

func (g *Timing) enterVBlankHBlank() {
	g.state = VBlankHBlank
	g.setHBlankFlag(true)
	if g.dispstat&(1<<4) != 0 {
		g.raiseIRQ(irqHBlank)
	}
}

func (g *Timing) setHBlankFlag(v bool) {
	if v {
		g.dispstat |= 1 << 1
	} else {
		g.dispstat &^= 1 << 1
	}
}

func (g *Timing) setVBlankFlag(v bool) {
	if v {
		g.dispstat |= 1 << 0
	} else {
		g.dispstat &^= 1 << 0
	}
}

func (g *Timing) updateVCountFlag() {
	target := g.vcountSetting()
	if g.vcount == target {
		g.dispstat |= 1 << 2
		if g.dispstat&(1<<5) != 0 {
			g.raiseIRQ(irqVCount)
		}
	} else {
		g.dispstat &^= 1 << 2
	}
	// The VBlank flag is set by enterVBlank at line 160 and cleared here,
	// when the 227 -> 0 wrap re-enters HDraw at line 0.
	if g.vcount == 0 && g.state == HDraw {
		g.setVBlankFlag(false)
	}
}

func (g *Timing) vcountSetting() int {
	return int(g.dispstat>>8) | int((g.dispstat>>7)&1)<<8
}

func (g *Timing) raiseIRQ(source int) {
	if g.irqc != nil {
		g.irqc.Raise(source)
	}
}

// ReadDispstat returns the DISPSTAT register (0x04000004).
func (g *Timing) ReadDispstat() uint16 { return g.dispstat }

// WriteDispstat applies a CPU write to DISPSTAT: only the IRQ-enable bits
// and the VCOUNT-setting field are writable; the status flags (0-2) are
// read-only from the CPU's perspective.
func (g *Timing) WriteDispstat(v uint16) {
	g.dispstat = (g.dispstat & 0x0007) | (v &^ 0x0007)
	g.updateVCountFlag()
}

// ReadVcount returns the VCOUNT register (0x04000006).
func (g *Timing) ReadVcount() uint16 { return uint16(g.vcount) }

type timingState struct {
	State    State
	VCount   int
	Cycles   int
	Dispstat uint16
}

// SaveState serializes the FSM via gob, following this module's snapshot
// convention; the compositor/DMA/IRQ collaborators are not part of the
// snapshot, matching spec.md's component-local save-state scope.
func (g *Timing) SaveState() []byte {
	var buf bytes.Buffer
	gob.NewEncoder(&buf).Encode(timingState{g.state, g.vcount, g.cycles, g.dispstat})
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (g *Timing) LoadState(data []byte) {
	var s timingState
	if gob.NewDecoder(bytes.NewReader(data)).Decode(&s) != nil {
		return
	}
	g.state, g.vcount, g.cycles, g.dispstat = s.State, s.VCount, s.Cycles, s.Dispstat
}
