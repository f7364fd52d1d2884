package cpu

// ShiftType identifies one of the four barrel-shifter operations.
type ShiftType uint8

const (
	ShiftLSL ShiftType = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// BarrelShifter applies one of LSL/LSR/ASR/ROR (and the RRX special case
// of ROR #0) to value, returning the shifted result and the carry-out bit
// the ALU may fold into the C flag for logical operations.
func BarrelShifter(value uint32, shift ShiftType, amount uint8, carryIn bool) (result uint32, carryOut bool) {
	switch shift {
	case ShiftLSL:
		return shiftLSL(value, amount, carryIn)
	case ShiftLSR:
		return shiftLSR(value, amount, carryIn)
	case ShiftASR:
		return shiftASR(value, amount, carryIn)
	default:
		return shiftROR(value, amount, carryIn)
	}
}

func shiftLSL(value uint32, amount uint8, carryIn bool) (uint32, bool) {
	switch {
	case amount == 0:
		return value, carryIn
	case amount < 32:
		return value << amount, value&(1<<(32-amount)) != 0
	case amount == 32:
		return 0, value&1 != 0
	default:
		return 0, false
	}
}

func shiftLSR(value uint32, amount uint8, carryIn bool) (uint32, bool) {
	switch {
	case amount == 0:
		// LSR #0 is encoded as LSR #32 for immediate shifts.
		return 0, value&(1<<31) != 0
	case amount < 32:
		return value >> amount, value&(1<<(amount-1)) != 0
	case amount == 32:
		return 0, value&(1<<31) != 0
	default:
		return 0, false
	}
}

func shiftASR(value uint32, amount uint8, carryIn bool) (uint32, bool) {
	sval := int32(value)
	switch {
	case amount == 0:
		amount = 32
		fallthrough
	default:
		if amount >= 32 {
			if sval < 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(sval >> amount), value&(1<<(amount-1)) != 0
	}
}

func shiftROR(value uint32, amount uint8, carryIn bool) (uint32, bool) {
	if amount == 0 {
		// ROR #0 is encoded as RRX: rotate right through carry by one bit.
		result := value >> 1
		if carryIn {
			result |= 1 << 31
		}
		return result, value&1 != 0
	}
	amount %= 32
	if amount == 0 {
		return value, value&(1<<31) != 0
	}
	result := value>>amount | value<<(32-amount)
	return result, value&(1<<(amount-1)) != 0
}
