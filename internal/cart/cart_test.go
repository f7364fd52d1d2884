package cart

import "testing"

func TestROMReadPastEndReturnsZero(t *testing.T) {
	r := NewROM([]byte{0x11, 0x22})
	if r.Read8(0) != 0x11 || r.Read8(1) != 0x22 {
		t.Fatal("unexpected in-range read")
	}
	if r.Read8(2) != 0 || r.Read8(1000) != 0 {
		t.Fatal("expected zero past end of image")
	}
}

func TestROMRead32LittleEndian(t *testing.T) {
	r := NewROM([]byte{0x78, 0x56, 0x34, 0x12})
	if got := r.Read32(0); got != 0x12345678 {
		t.Fatalf("Read32 = %08x, want 12345678", got)
	}
}

func TestNopBackupIsInert(t *testing.T) {
	var b NopBackup
	b.Write8(0, 0x42)
	if b.Read8(0) != 0xFF {
		t.Fatal("NopBackup should read back 0xFF regardless of writes")
	}
}
