package gpu

import "testing"

type recordingDma struct{ hblanks, vblanks int }

func (r *recordingDma) NotifyHBlank() { r.hblanks++ }
func (r *recordingDma) NotifyVBlank() { r.vblanks++ }

type recordingCompositor struct{ lines []int }

func (r *recordingCompositor) RenderLine(vcount int) { r.lines = append(r.lines, vcount) }

// TestFullFrameCycleCount walks the FSM for exactly one cycle at a time
// across a full 280896-cycle frame and checks the total matches the known
// frame length and that the machine returns to HDraw/line 0.
func TestFullFrameCycleCount(t *testing.T) {
	dma := &recordingDma{}
	comp := &recordingCompositor{}
	g := New(dma, nil, comp)

	total := 0
	for total < CyclesFullRefresh {
		g.Tick(1)
		total++
	}

	if g.CurrentState() != HDraw {
		t.Fatalf("state after full frame = %v, want HDraw", g.CurrentState())
	}
	if g.VCount() != 0 {
		t.Fatalf("vcount after full frame = %d, want 0", g.VCount())
	}
	if dma.vblanks != 1 {
		t.Fatalf("vblank notifications = %d, want 1", dma.vblanks)
	}
	if dma.hblanks != VisibleLines {
		t.Fatalf("hblank notifications = %d, want %d", dma.hblanks, VisibleLines)
	}
	if len(comp.lines) != VisibleLines {
		t.Fatalf("rendered %d lines, want %d", len(comp.lines), VisibleLines)
	}
}

func TestHDrawThenHBlankPerScanline(t *testing.T) {
	g := New(nil, nil, nil)
	g.Tick(cyclesHDraw - 1)
	if g.CurrentState() != HDraw {
		t.Fatalf("state = %v before HDraw elapses, want HDraw", g.CurrentState())
	}
	g.Tick(1)
	if g.CurrentState() != HBlankState {
		t.Fatalf("state after HDraw elapses = %v, want HBlankState", g.CurrentState())
	}
	if g.ReadDispstat()&(1<<1) == 0 {
		t.Fatal("hblank flag should be set")
	}
	g.Tick(cyclesHBlank)
	if g.CurrentState() != HDraw || g.VCount() != 1 {
		t.Fatalf("state=%v vcount=%d after scanline 0, want HDraw/1", g.CurrentState(), g.VCount())
	}
}

func TestVBlankEntryAtLine160(t *testing.T) {
	g := New(nil, nil, nil)
	g.Tick(CyclesPerScanline * VisibleLines)
	if g.CurrentState() != VBlankHDraw || g.VCount() != VisibleLines {
		t.Fatalf("state=%v vcount=%d at frame start of vblank, want VBlankHDraw/160", g.CurrentState(), g.VCount())
	}
	if g.ReadDispstat()&1 == 0 {
		t.Fatal("vblank flag should be set")
	}
}

func TestVCountMatchIRQ(t *testing.T) {
	ic := &fakeIRQ{}
	g := New(nil, ic, nil)
	g.WriteDispstat(1<<5 | 10<<8) // vcount-irq enable, target line 10
	g.Tick(CyclesPerScanline * 10)
	if len(ic.raised) == 0 {
		t.Fatal("expected vcount-match irq")
	}
}

type fakeIRQ struct{ raised []int }

func (f *fakeIRQ) Raise(source int) { f.raised = append(f.raised, source) }

// TestRenderLineFiresOnHBlankToHDrawEdge checks the scanline callback lands
// on the HBlank->HDraw transition (after VCOUNT has advanced), not on the
// HDraw->HBlank edge.
func TestRenderLineFiresOnHBlankToHDrawEdge(t *testing.T) {
	comp := &recordingCompositor{}
	g := New(nil, nil, comp)

	g.Tick(cyclesHDraw)
	if len(comp.lines) != 0 {
		t.Fatalf("RenderLine fired on HDraw->HBlank edge, want no call yet (lines=%v)", comp.lines)
	}

	g.Tick(cyclesHBlank)
	if len(comp.lines) != 1 || comp.lines[0] != 1 {
		t.Fatalf("lines after first full scanline = %v, want [1] (vcount already advanced)", comp.lines)
	}
}

// TestRenderLineWrapsToLineZero checks the VBlankHBlank->HDraw wraparound at
// the end of a frame renders line 0; with the 159 in-frame HBlank->HDraw
// steps (lines 1-159) that makes 160 renders per frame.
func TestRenderLineWrapsToLineZero(t *testing.T) {
	comp := &recordingCompositor{}
	g := New(nil, nil, comp)

	total := 0
	for total < CyclesFullRefresh {
		g.Tick(1)
		total++
	}

	if len(comp.lines) != VisibleLines {
		t.Fatalf("rendered %d lines, want %d", len(comp.lines), VisibleLines)
	}
	if last := comp.lines[len(comp.lines)-1]; last != 0 {
		t.Fatalf("last rendered line = %d, want 0 (wraparound render)", last)
	}
}
