package cpu

import "testing"

func TestBarrelShifterLSL(t *testing.T) {
	cases := []struct {
		value  uint32
		amount uint8
		wantV  uint32
		wantC  bool
	}{
		{0x1, 0, 0x1, false},           // LSL #0 is a no-op, carry unchanged (false passed in)
		{0x1, 1, 0x2, false},
		{0x80000000, 1, 0, true},       // bit shifted out becomes carry
		{0x1, 32, 0, true},             // LSL #32: result 0, carry = bit0
		{0x1, 33, 0, false},            // LSL >32: result 0, carry 0
	}
	for _, c := range cases {
		v, carry := BarrelShifter(c.value, ShiftLSL, c.amount, false)
		if v != c.wantV || carry != c.wantC {
			t.Fatalf("LSL(%#x,#%d) = (%#x,%v), want (%#x,%v)", c.value, c.amount, v, carry, c.wantV, c.wantC)
		}
	}
}

func TestBarrelShifterLSR(t *testing.T) {
	// LSR #0 is encoded as LSR #32 for immediate shifts.
	v, carry := BarrelShifter(0x80000000, ShiftLSR, 0, false)
	if v != 0 || !carry {
		t.Fatalf("LSR #0 (=#32) of 0x80000000 = (%#x,%v), want (0,true)", v, carry)
	}
	v, carry = BarrelShifter(0x8, ShiftLSR, 4, false)
	if v != 0 || !carry {
		t.Fatalf("LSR(0x8,#4) = (%#x,%v), want (0,true)", v, carry)
	}
}

func TestBarrelShifterASRSignExtends(t *testing.T) {
	v, carry := BarrelShifter(0x80000000, ShiftASR, 4, false)
	if v != 0xF8000000 {
		t.Fatalf("ASR of negative value = %#x, want sign-extended 0xF8000000", v)
	}
	if carry {
		t.Fatalf("ASR(#4) carry should reflect bit3 of the input, which is 0 here")
	}
	// ASR by >=32 of a negative value saturates to all-ones.
	v, carry = BarrelShifter(0x80000000, ShiftASR, 40, false)
	if v != 0xFFFFFFFF || !carry {
		t.Fatalf("ASR #40 of negative value = (%#x,%v), want (0xFFFFFFFF,true)", v, carry)
	}
}

func TestBarrelShifterRORAndRRX(t *testing.T) {
	v, carry := BarrelShifter(0x1, ShiftROR, 1, false)
	if v != 0x80000000 || !carry {
		t.Fatalf("ROR(1,#1) = (%#x,%v), want (0x80000000,true)", v, carry)
	}
	// ROR #0 is RRX: rotate right through carry by one bit.
	v, carry = BarrelShifter(0x2, ShiftROR, 0, true)
	if v != 0x80000001 || carry {
		t.Fatalf("RRX(0x2, carryIn=true) = (%#x,%v), want (0x80000001,false)", v, carry)
	}
}

func TestCheckConditionTable(t *testing.T) {
	allFlags := PSR{N: true, Z: true, C: true, V: true}
	noFlags := PSR{}

	cases := []struct {
		cond Condition
		p    PSR
		want bool
	}{
		{CondEQ, allFlags, true},
		{CondEQ, noFlags, false},
		{CondNE, noFlags, true},
		{CondHS, PSR{C: true}, true},
		{CondLO, PSR{C: false}, true},
		{CondMI, PSR{N: true}, true},
		{CondPL, PSR{N: false}, true},
		{CondVS, PSR{V: true}, true},
		{CondVC, PSR{V: false}, true},
		{CondHI, PSR{C: true, Z: false}, true},
		{CondHI, PSR{C: true, Z: true}, false},
		{CondLS, PSR{C: false}, true},
		{CondGE, PSR{N: true, V: true}, true},
		{CondGE, PSR{N: true, V: false}, false},
		{CondLT, PSR{N: true, V: false}, true},
		{CondGT, PSR{Z: false, N: false, V: false}, true},
		{CondGT, PSR{Z: true}, false},
		{CondLE, PSR{Z: true}, true},
		{CondAL, noFlags, true},
		{CondInvalid, allFlags, false},
	}
	for _, c := range cases {
		if got := checkCondition(c.cond, c.p); got != c.want {
			t.Fatalf("checkCondition(%v, %+v) = %v, want %v", c.cond, c.p, got, c.want)
		}
	}
}
