package bus

import (
	"testing"

	"github.com/advance-core/gba/internal/cart"
	"github.com/advance-core/gba/internal/dma"
	"github.com/advance-core/gba/internal/gpu"
	"github.com/advance-core/gba/internal/irq"
	"github.com/advance-core/gba/internal/timer"
)

func newTestBus() *Bus {
	b := New(cart.NewROM(make([]byte, 0x1000)), cart.NopBackup{})
	b.IRQ = irq.New()
	b.DMA = dma.New(b, b.IRQ, nil)
	b.Timer = timer.New(b.IRQ, nil)
	b.GPU = gpu.New(b.DMA, b.IRQ, nil)
	return b
}

func TestEWRAMReadWrite(t *testing.T) {
	b := newTestBus()
	b.Write16(0x02000100, 0xBEEF)
	if got := b.Read16(0x02000100); got != 0xBEEF {
		t.Fatalf("got %04x, want BEEF", got)
	}
}

func TestIWRAMReadWrite32(t *testing.T) {
	b := newTestBus()
	b.Write32(0x03000000, 0xCAFEBABE)
	if got := b.Read32(0x03000000); got != 0xCAFEBABE {
		t.Fatalf("got %08x, want CAFEBABE", got)
	}
}

func TestVRAMMirrorsAbove0x18000(t *testing.T) {
	b := newTestBus()
	b.Write8(0x06010010, 0x42)
	// 0x06018000 + 0x10 mirrors 0x06010010: the upper 32KB of VRAM repeats there.
	if got := b.Read8(0x06018010); got != 0x42 {
		t.Fatalf("got %02x, want 42 via vram mirror", got)
	}
}

func TestWaitcntRecomputesWaitTable(t *testing.T) {
	b := newTestBus()
	before := b.Cycles16(0x0E000000, NonSeq)
	b.Write16(0x04000204, 0x0001) // sram_wait_control = 1 -> n16 = 1+3
	after := b.Cycles16(0x0E000000, NonSeq)
	if before == after {
		t.Fatalf("expected sram wait-state change after WAITCNT write, both were %d", before)
	}
	if after != 1+sramNonSeqCycles[1] {
		t.Fatalf("sram n16 after write = %d, want %d", after, 1+sramNonSeqCycles[1])
	}
}

func TestIEIFIMERoundTrip(t *testing.T) {
	b := newTestBus()
	b.Write16(0x04000200, 0x3FFF)
	b.Write16(0x04000208, 1)
	b.IRQ.Raise(irq.VBlank)
	if b.Read16(0x04000200) != 0x3FFF {
		t.Fatalf("IE readback mismatch")
	}
	if !b.IRQ.Pending() {
		t.Fatal("expected pending IRQ after IE/IME set and VBlank raised")
	}
}

func TestOutOfRangeROMReadReturnsZero(t *testing.T) {
	b := newTestBus()
	if got := b.Read8(0x08000FFF + 1); got != 0 {
		t.Fatalf("expected 0 past end of ROM image, got %02x", got)
	}
}
