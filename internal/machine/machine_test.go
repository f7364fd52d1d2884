package machine

import (
	"encoding/binary"
	"testing"
)

func infiniteLoopROM() []byte {
	rom := make([]byte, 0x100)
	binary.LittleEndian.PutUint32(rom[0:4], 0xEAFFFFFE) // B $ (branch to self)
	return rom
}

func TestNewWiresEveryComponent(t *testing.T) {
	m := New(Config{ROM: infiniteLoopROM()})
	if m.Bus == nil || m.CPU == nil || m.IRQ == nil || m.DMA == nil || m.Timer == nil || m.GPU == nil {
		t.Fatalf("New() left a component nil: %+v", m)
	}
	if m.FIFOA == nil || m.FIFOB == nil {
		t.Fatalf("New() did not wire the sound FIFOs")
	}
}

func TestSkipBIOSStartsAtCartridgeEntry(t *testing.T) {
	m := New(Config{ROM: infiniteLoopROM()})
	m.SkipBIOS()
	if got := m.CPU.PC(); got != 0x08000000 {
		t.Fatalf("PC after SkipBIOS = %#x, want 0x08000000", got)
	}
}

func TestStepAdvancesCyclesAndLoopsForever(t *testing.T) {
	m := New(Config{ROM: infiniteLoopROM()})
	m.SkipBIOS()

	var total uint64
	for i := 0; i < 50; i++ {
		total += uint64(m.Step())
	}
	if m.Cycles() != total {
		t.Fatalf("Cycles() = %d, want %d", m.Cycles(), total)
	}
	if total == 0 {
		t.Fatalf("Step() reported zero cycles across 50 iterations")
	}
}

func TestStepCyclesConsumesAtLeastRequested(t *testing.T) {
	m := New(Config{ROM: infiniteLoopROM()})
	m.SkipBIOS()

	spent := m.StepCycles(100)
	if spent < 100 {
		t.Fatalf("StepCycles(100) reported %d, want >= 100", spent)
	}
	if m.Cycles() != uint64(spent) {
		t.Fatalf("Cycles() = %d, want %d", m.Cycles(), spent)
	}
}
