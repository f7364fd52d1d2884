package cpu

// armFormat classifies an ARM instruction into one of the dispatch groups
// the ARM7TDMI decode tree distinguishes. Only bits 27-20 and 7-4 are ever
// needed to tell formats apart — exactly the bits the 12-bit hash below
// preserves — so classification never has to look at the rest of the word.
type armFormat uint8

const (
	fmtDataProcessing armFormat = iota
	fmtPSRTransferMRS
	fmtPSRTransferMSR
	fmtMultiply
	fmtMultiplyLong
	fmtSingleDataSwap
	fmtBranchExchange
	fmtHalfwordTransferReg
	fmtHalfwordTransferImm
	fmtSingleDataTransfer
	fmtUndefined
	fmtBlockDataTransfer
	fmtBranch
	fmtSoftwareInterrupt
	fmtCoprocessorUnsupported
)

// classifyARM implements the standard ARM7TDMI format decode tree over the
// 8 bits of insn[27:20] and 4 bits of insn[7:4] — the same bits the
// original's build-time LUT generator keys on.
func classifyARM(b27_20, b7_4 uint8) armFormat {
	switch {
	case b27_20&0xFC == 0x00 && b7_4 == 0x9:
		return fmtMultiply
	case b27_20&0xF8 == 0x08 && b7_4 == 0x9:
		return fmtMultiplyLong
	case b27_20&0xFB == 0x10 && b7_4 == 0x9:
		return fmtSingleDataSwap
	case b27_20 == 0x12 && b7_4 == 0x1:
		return fmtBranchExchange
	case b27_20&0xE0 == 0x00 && b7_4&0x9 == 0x9 && b7_4 != 0x9:
		if b27_20&0x04 != 0 {
			return fmtHalfwordTransferImm
		}
		return fmtHalfwordTransferReg
	case b27_20&0xFB == 0x10:
		return fmtPSRTransferMRS
	case b27_20&0xDB == 0x12 || b27_20&0xFB == 0x32:
		return fmtPSRTransferMSR
	case b27_20&0xC0 == 0x00:
		return fmtDataProcessing
	case b27_20&0xC0 == 0x40:
		return fmtSingleDataTransfer
	case b27_20&0xE1 == 0x61 && b7_4&0x1 != 0:
		return fmtUndefined
	case b27_20&0xE0 == 0x80:
		return fmtBlockDataTransfer
	case b27_20&0xE0 == 0xA0:
		return fmtBranch
	case b27_20&0xF0 == 0xF0:
		return fmtSoftwareInterrupt
	case b27_20&0xC0 == 0xC0:
		return fmtCoprocessorUnsupported
	default:
		return fmtUndefined
	}
}

type armHandler func(c *CpuCore, insn uint32) int

var armTable [4096]armHandler

func armHash(insn uint32) uint16 {
	return uint16(((insn>>16)&0xFF0)|((insn>>4)&0xF)) & 0xFFF
}

func init() {
	for h := 0; h < 4096; h++ {
		b27_20 := uint8((h >> 4) & 0xFF)
		b7_4 := uint8(h & 0xF)
		armTable[h] = handlerForFormat(classifyARM(b27_20, b7_4))
	}
}

func handlerForFormat(f armFormat) armHandler {
	switch f {
	case fmtDataProcessing:
		return execDataProcessing
	case fmtPSRTransferMRS:
		return execMRS
	case fmtPSRTransferMSR:
		return execMSR
	case fmtMultiply:
		return execMultiply
	case fmtMultiplyLong:
		return execMultiplyLong
	case fmtSingleDataSwap:
		return execSingleDataSwap
	case fmtBranchExchange:
		return execBranchExchange
	case fmtHalfwordTransferReg, fmtHalfwordTransferImm:
		return execHalfwordTransfer
	case fmtSingleDataTransfer:
		return execSingleDataTransfer
	case fmtBlockDataTransfer:
		return execBlockDataTransfer
	case fmtBranch:
		return execBranch
	case fmtSoftwareInterrupt:
		return execSoftwareInterruptARM
	default:
		return execUndefinedARM
	}
}

// executeArm evaluates insn's condition field against the current flags
// and, on pass, looks up and calls its handler via the precomputed table;
// on fail it only costs the fetch cycle already charged by the caller —
// per spec.md §4.8, a failed condition never touches the decode table.
func (c *CpuCore) executeArm(insn uint32) int {
	cond := Condition((insn >> 28) & 0xF)
	if !checkCondition(cond, c.regs.CPSR()) {
		return 0
	}
	h := armHash(insn)
	return armTable[h](c, insn)
}
