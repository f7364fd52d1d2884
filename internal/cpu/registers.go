package cpu

// bankIndex maps a ProcessorMode to an index into the banked-register
// arrays (r13/r14 per mode, plus a separate FIQ bank for r8-r12).
func bankIndex(m ProcessorMode) int {
	switch m {
	case ModeUser, ModeSystem:
		return 0
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	default:
		return 0
	}
}

const numBanks = 6

// BankedRegisters holds every register that differs by processor mode:
// r13 (SP) and r14 (LR) banked across all 6 modes (User/System share bank
// 0), r8-r12 banked separately for FIQ only, and one SPSR per
// exception mode (User/System have no SPSR).
type BankedRegisters struct {
	r13 [numBanks]uint32
	r14 [numBanks]uint32
	fiqR8_12    [2][5]uint32 // [0]=normal r8-r12, [1]=FIQ-banked r8-r12
	spsr        [numBanks]PSR
}

// RegisterFile is the ARM7TDMI's visible register set: r0-r15 plus CPSR,
// with the banked sets behind it swapped in/out on mode changes.
type RegisterFile struct {
	r      [16]uint32
	cpsr   PSR
	banked BankedRegisters
	inFIQBank bool
}

// NewRegisterFile returns a register file in Supervisor mode with
// interrupts masked, matching the ARM7TDMI reset state (spec.md §4.7).
func NewRegisterFile() *RegisterFile {
	rf := &RegisterFile{}
	rf.cpsr = PSR{I: true, F: true, T: StateARM, Mode: ModeSupervisor}
	return rf
}

// Get returns register n (0-15) from the currently active bank.
func (rf *RegisterFile) Get(n int) uint32 { return rf.r[n] }

// Set writes register n （0-15) in the currently active bank.
func (rf *RegisterFile) Set(n int, v uint32) { rf.r[n] = v }

// GetUser returns register n as seen from User mode, regardless of the
// current mode — used by LDM/STM with the ^ suffix. Single data transfers
// (LDR/STR, post-indexed writeback included) do not use it; they access
// the current mode's registers.
func (rf *RegisterFile) GetUser(n int) uint32 {
	if n < 8 || n == 15 {
		return rf.r[n]
	}
	if n <= 12 {
		if rf.inFIQBank {
			return rf.banked.fiqR8_12[0][n-8]
		}
		return rf.r[n]
	}
	// n == 13 or 14: if we're already in the User/System bank, the live
	// register is current; otherwise read the flushed User-bank copy.
	if bankIndex(rf.cpsr.Mode) == 0 {
		return rf.r[n]
	}
	if n == 13 {
		return rf.banked.r13[0]
	}
	return rf.banked.r14[0]
}

// SetUser writes register n as seen from User mode.
func (rf *RegisterFile) SetUser(n int, v uint32) {
	if n < 8 || n == 15 {
		rf.r[n] = v
		return
	}
	if n <= 12 {
		if rf.inFIQBank {
			rf.banked.fiqR8_12[0][n-8] = v
		} else {
			rf.r[n] = v
		}
		return
	}
	if n == 13 {
		if bankIndex(rf.cpsr.Mode) == 0 {
			rf.r[13] = v
		} else {
			rf.banked.r13[0] = v
		}
		return
	}
	if bankIndex(rf.cpsr.Mode) == 0 {
		rf.r[14] = v
	} else {
		rf.banked.r14[0] = v
	}
}

// CPSR returns the current Program Status Register.
func (rf *RegisterFile) CPSR() PSR { return rf.cpsr }

// SetCPSR replaces the CPSR wholesale (MSR to CPSR, or restoring NZCV only
// depending on caller-applied mask); mode changes trigger a bank swap.
func (rf *RegisterFile) SetCPSR(p PSR) {
	if p.Mode != rf.cpsr.Mode {
		rf.changeMode(rf.cpsr.Mode, p.Mode)
	}
	rf.cpsr = p
}

// SPSR returns the banked SPSR for the current mode. Calling this in
// User/System mode (which has none) is a programmer error the caller
// (exception-return code) must avoid, per spec.md's exception table.
func (rf *RegisterFile) SPSR() PSR { return rf.banked.spsr[bankIndex(rf.cpsr.Mode)] }

// SetSPSR writes the banked SPSR for the current mode.
func (rf *RegisterFile) SetSPSR(p PSR) { rf.banked.spsr[bankIndex(rf.cpsr.Mode)] = p }

// changeMode swaps r13/r14 (and r8-r12 for FIQ) out of the register file
// into the old mode's bank and the new mode's bank values in, following
// the original's Core::change_mode bank-swap order exactly.
func (rf *RegisterFile) changeMode(old, new_ ProcessorMode) {
	oldIdx, newIdx := bankIndex(old), bankIndex(new_)

	rf.banked.r13[oldIdx] = rf.r[13]
	rf.banked.r14[oldIdx] = rf.r[14]

	wasFIQ := old == ModeFIQ
	willFIQ := new_ == ModeFIQ
	if wasFIQ != willFIQ {
		for i := 0; i < 5; i++ {
			if wasFIQ {
				rf.banked.fiqR8_12[1][i] = rf.r[8+i]
			} else {
				rf.banked.fiqR8_12[0][i] = rf.r[8+i]
			}
		}
		if willFIQ {
			for i := 0; i < 5; i++ {
				rf.r[8+i] = rf.banked.fiqR8_12[1][i]
			}
		} else {
			for i := 0; i < 5; i++ {
				rf.r[8+i] = rf.banked.fiqR8_12[0][i]
			}
		}
	}
	rf.inFIQBank = willFIQ

	rf.r[13] = rf.banked.r13[newIdx]
	rf.r[14] = rf.banked.r14[newIdx]
}
