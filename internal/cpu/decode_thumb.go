package cpu

// thumbFormat identifies one of the 19 THUMB instruction formats. Unlike
// ARM, THUMB's format is fully determined by its top 10 bits (insn[15:6]),
// which is exactly the table hash below.
type thumbFormat uint8

const (
	thumbMoveShiftedReg thumbFormat = iota
	thumbAddSub
	thumbDataProcessImm
	thumbALUOps
	thumbHiRegOpBX
	thumbLdrPCRel
	thumbLdrStrReg
	thumbLdrStrSignExt
	thumbLdrStrImm
	thumbLdrStrHalfword
	thumbLdrStrSP
	thumbLoadAddress
	thumbAddSP
	thumbPushPop
	thumbLdmStm
	thumbBranchCond
	thumbSWI
	thumbBranch
	thumbBranchLongLink
	thumbUndefined
)

// classifyThumb implements the THUMB format decode tree over h = insn[15:6],
// following the same bit groupings gbatek documents and the original's
// decode table generator keys on.
func classifyThumb(h uint16) thumbFormat {
	switch {
	case h>>7 == 0b000 && (h>>5)&0x3 != 0b11:
		return thumbMoveShiftedReg
	case h>>7 == 0b000 && (h>>5)&0x3 == 0b11:
		return thumbAddSub
	case h>>7 == 0b001:
		return thumbDataProcessImm
	case h>>4 == 0b010000:
		return thumbALUOps
	case h>>4 == 0b010001:
		return thumbHiRegOpBX
	case h>>5 == 0b01001:
		return thumbLdrPCRel
	case h>>6 == 0b0101 && h&(1<<3) == 0:
		return thumbLdrStrReg
	case h>>6 == 0b0101 && h&(1<<3) != 0:
		return thumbLdrStrSignExt
	case h>>7 == 0b011:
		return thumbLdrStrImm
	case h>>6 == 0b1000:
		return thumbLdrStrHalfword
	case h>>6 == 0b1001:
		return thumbLdrStrSP
	case h>>6 == 0b1010:
		return thumbLoadAddress
	case h>>6 == 0b1011 && (h>>2)&0xF == 0:
		return thumbAddSP
	case h>>6 == 0b1011 && h&(1<<4) != 0:
		return thumbPushPop
	case h>>6 == 0b1100:
		return thumbLdmStm
	case h>>6 == 0b1101 && (h>>2)&0xF == 0b1111:
		return thumbSWI
	case h>>6 == 0b1101:
		return thumbBranchCond
	case h>>5 == 0b11100:
		return thumbBranch
	case h>>6 == 0b1111:
		return thumbBranchLongLink
	default:
		return thumbUndefined
	}
}

type thumbHandler func(c *CpuCore, insn uint16) int

var thumbTable [1024]thumbHandler

func thumbHash(insn uint16) uint16 {
	return (insn >> 6) & 0x3FF
}

func init() {
	for h := 0; h < 1024; h++ {
		thumbTable[h] = thumbHandlerForFormat(classifyThumb(uint16(h)))
	}
}

func thumbHandlerForFormat(f thumbFormat) thumbHandler {
	switch f {
	case thumbMoveShiftedReg:
		return execThumbMoveShiftedReg
	case thumbAddSub:
		return execThumbAddSub
	case thumbDataProcessImm:
		return execThumbDataProcessImm
	case thumbALUOps:
		return execThumbALUOps
	case thumbHiRegOpBX:
		return execThumbHiRegOpBX
	case thumbLdrPCRel:
		return execThumbLdrPCRel
	case thumbLdrStrReg:
		return execThumbLdrStrReg
	case thumbLdrStrSignExt:
		return execThumbLdrStrSignExt
	case thumbLdrStrImm:
		return execThumbLdrStrImm
	case thumbLdrStrHalfword:
		return execThumbLdrStrHalfword
	case thumbLdrStrSP:
		return execThumbLdrStrSP
	case thumbLoadAddress:
		return execThumbLoadAddress
	case thumbAddSP:
		return execThumbAddSP
	case thumbPushPop:
		return execThumbPushPop
	case thumbLdmStm:
		return execThumbLdmStm
	case thumbBranchCond:
		return execThumbBranchCond
	case thumbSWI:
		return execThumbSWIHandler
	case thumbBranch:
		return execThumbBranch
	case thumbBranchLongLink:
		return execThumbBranchLongLink
	default:
		return execThumbUndefined
	}
}

// executeThumb looks up insn's handler in the precomputed table and runs
// it; THUMB instructions carry no condition field (format 16 excepted,
// which tests its own 4-bit condition internally).
func (c *CpuCore) executeThumb(insn uint16) int {
	return thumbTable[thumbHash(insn)](c, insn)
}
