package irq

import "testing"

func TestPendingRequiresImeAndEnable(t *testing.T) {
	c := New()
	c.Raise(VBlank)
	if c.Pending() {
		t.Fatal("should not be pending: IME disabled")
	}
	c.WriteIME(1)
	if c.Pending() {
		t.Fatal("should not be pending: IE bit clear")
	}
	c.WriteIE(1 << VBlank)
	if !c.Pending() {
		t.Fatal("expected pending")
	}
}

func TestWriteIFClearsOnlySetBits(t *testing.T) {
	c := New()
	c.Raise(VBlank)
	c.Raise(Timer0)
	c.WriteIF(1 << VBlank)
	if c.ReadIF() != 1<<Timer0 {
		t.Fatalf("IF = %04x, want only Timer0 bit set", c.ReadIF())
	}
}

func TestPendingMaskIgnoresIME(t *testing.T) {
	c := New()
	c.WriteIE(1 << Keypad)
	c.Raise(Keypad)
	if !c.PendingMask() {
		t.Fatal("expected PendingMask true regardless of IME")
	}
	if c.Pending() {
		t.Fatal("Pending should still require IME")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New()
	c.WriteIE(0x1234 & 0x3FFF)
	c.Raise(Dma2)
	c.WriteIME(1)
	data := c.SaveState()

	c2 := New()
	c2.LoadState(data)
	if c2.ReadIE() != c.ReadIE() || c2.ReadIF() != c.ReadIF() || c2.ReadIME() != c.ReadIME() {
		t.Fatalf("round trip mismatch: got IE=%04x IF=%04x IME=%d", c2.ReadIE(), c2.ReadIF(), c2.ReadIME())
	}
}
