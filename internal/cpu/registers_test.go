package cpu

import "testing"

func TestRegisterFileBankSwapInvolution(t *testing.T) {
	rf := NewRegisterFile()
	rf.Set(13, 0x1000) // Supervisor SP (reset mode)
	rf.Set(14, 0x1004)

	p := rf.CPSR()
	p.Mode = ModeIRQ
	rf.SetCPSR(p)
	rf.Set(13, 0x2000)
	rf.Set(14, 0x2004)

	p = rf.CPSR()
	p.Mode = ModeSupervisor
	rf.SetCPSR(p)
	if got := rf.Get(13); got != 0x1000 {
		t.Fatalf("r13 back in Supervisor = %#x, want 0x1000 (banked value preserved)", got)
	}
	if got := rf.Get(14); got != 0x1004 {
		t.Fatalf("r14 back in Supervisor = %#x, want 0x1004", got)
	}

	p = rf.CPSR()
	p.Mode = ModeIRQ
	rf.SetCPSR(p)
	if got := rf.Get(13); got != 0x2000 {
		t.Fatalf("r13 back in IRQ = %#x, want 0x2000 (IRQ bank round-tripped)", got)
	}
}

func TestRegisterFileFIQBanksR8ToR12(t *testing.T) {
	rf := NewRegisterFile()
	rf.Set(8, 0xAAAA)

	p := rf.CPSR()
	p.Mode = ModeFIQ
	rf.SetCPSR(p)
	rf.Set(8, 0xBBBB)

	p = rf.CPSR()
	p.Mode = ModeSupervisor
	rf.SetCPSR(p)
	if got := rf.Get(8); got != 0xAAAA {
		t.Fatalf("r8 back in Supervisor = %#x, want 0xAAAA (non-FIQ bank preserved)", got)
	}

	p = rf.CPSR()
	p.Mode = ModeFIQ
	rf.SetCPSR(p)
	if got := rf.Get(8); got != 0xBBBB {
		t.Fatalf("r8 back in FIQ = %#x, want 0xBBBB (FIQ bank round-tripped)", got)
	}
}

func TestRegisterFileGetSetUserFromPrivilegedMode(t *testing.T) {
	rf := NewRegisterFile() // starts in Supervisor
	rf.Set(13, 0x3000)      // Supervisor SP

	rf.SetUser(13, 0x7F00) // write the User-mode SP without leaving Supervisor
	if got := rf.Get(13); got != 0x3000 {
		t.Fatalf("Supervisor r13 should be untouched by SetUser, got %#x", got)
	}
	if got := rf.GetUser(13); got != 0x7F00 {
		t.Fatalf("GetUser(13) = %#x, want 0x7F00", got)
	}

	p := rf.CPSR()
	p.Mode = ModeUser
	rf.SetCPSR(p)
	if got := rf.Get(13); got != 0x7F00 {
		t.Fatalf("r13 after switching to User mode = %#x, want 0x7F00", got)
	}
}

func TestPSRPackUnpackRoundTrip(t *testing.T) {
	p := PSR{N: true, Z: false, C: true, V: false, I: true, F: false, T: StateTHUMB, Mode: ModeIRQ}
	packed := p.Pack()

	var q PSR
	q.Unpack(packed)
	if q != p {
		t.Fatalf("Unpack(Pack(p)) = %+v, want %+v", q, p)
	}
}
