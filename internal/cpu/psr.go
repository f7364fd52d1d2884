package cpu

// ProcessorMode is the 5-bit CPSR mode field.
type ProcessorMode uint8

const (
	ModeUser       ProcessorMode = 0x10
	ModeFIQ        ProcessorMode = 0x11
	ModeIRQ        ProcessorMode = 0x12
	ModeSupervisor ProcessorMode = 0x13
	ModeAbort      ProcessorMode = 0x17
	ModeUndefined  ProcessorMode = 0x1B
	ModeSystem     ProcessorMode = 0x1F
)

func (m ProcessorMode) valid() bool {
	switch m {
	case ModeUser, ModeFIQ, ModeIRQ, ModeSupervisor, ModeAbort, ModeUndefined, ModeSystem:
		return true
	}
	return false
}

// ProcessorState is the CPSR.T bit: ARM (32-bit) or THUMB (16-bit).
type ProcessorState uint8

const (
	StateARM ProcessorState = iota
	StateTHUMB
)

// PSR bit positions.
const (
	bitN = 31
	bitZ = 30
	bitC = 29
	bitV = 28
	bitI = 7
	bitF = 6
	bitT = 5
)

// PSR is a 32-bit Program Status Register (CPSR or one of the banked
// SPSRs), modeled as a plain struct of named fields rather than a raw
// bitmask so ALU/exception code reads naturally, with Pack/Unpack for the
// bus-visible 32-bit representation (MRS/MSR, exception entry/return).
type PSR struct {
	N, Z, C, V bool
	I, F       bool
	T          ProcessorState
	Mode       ProcessorMode
}

// Pack returns the 32-bit register encoding of the PSR.
func (p PSR) Pack() uint32 {
	var v uint32
	if p.N {
		v |= 1 << bitN
	}
	if p.Z {
		v |= 1 << bitZ
	}
	if p.C {
		v |= 1 << bitC
	}
	if p.V {
		v |= 1 << bitV
	}
	if p.I {
		v |= 1 << bitI
	}
	if p.F {
		v |= 1 << bitF
	}
	if p.T == StateTHUMB {
		v |= 1 << bitT
	}
	v |= uint32(p.Mode) & 0x1F
	return v
}

// Unpack loads the PSR fields from a 32-bit register encoding.
func (p *PSR) Unpack(v uint32) {
	p.N = v&(1<<bitN) != 0
	p.Z = v&(1<<bitZ) != 0
	p.C = v&(1<<bitC) != 0
	p.V = v&(1<<bitV) != 0
	p.I = v&(1<<bitI) != 0
	p.F = v&(1<<bitF) != 0
	if v&(1<<bitT) != 0 {
		p.T = StateTHUMB
	} else {
		p.T = StateARM
	}
	mode := ProcessorMode(v & 0x1F)
	if mode.valid() {
		p.Mode = mode
	}
}
