package timer

import (
	"testing"

	"github.com/advance-core/gba/internal/irq"
)

func TestOverflowReloadsAndRaisesIRQ(t *testing.T) {
	ic := irq.New()
	ic.WriteIE(1 << irq.Timer0)
	ic.WriteIME(1)
	u := New(ic, nil)

	u.WriteReload(0, 0xFFFE) // overflows every 2 ticks, prescaler=1 (/1)
	u.WriteControl(0, 1<<7|1<<6)

	u.Tick(1)
	if u.ReadCounter(0) != 0xFFFF {
		t.Fatalf("counter = %04x, want FFFF", u.ReadCounter(0))
	}
	u.Tick(1)
	if !ic.PendingMask() {
		t.Fatal("expected overflow IRQ flagged")
	}
	if u.ReadCounter(0) != 0xFFFE {
		t.Fatalf("counter after overflow = %04x, want reload value FFFE", u.ReadCounter(0))
	}
}

func TestCascadeAdvancesOnlyOnOverflow(t *testing.T) {
	ic := irq.New()
	u := New(ic, nil)

	// timer0: overflows every tick (reload=0xFFFF), prescaler 0 (/1)
	u.WriteReload(0, 0xFFFF)
	u.WriteControl(0, 1<<7)
	// timer1: cascade, reload 0
	u.WriteReload(1, 0)
	u.WriteControl(1, 1<<7|1<<2)

	for i := 0; i < 5; i++ {
		u.Tick(1)
	}
	if u.ReadCounter(1) != 5 {
		t.Fatalf("cascaded timer1 = %d, want 5 (one increment per timer0 overflow)", u.ReadCounter(1))
	}
}

func TestCascadedTimerNotInRunningMask(t *testing.T) {
	ic := irq.New()
	u := New(ic, nil)
	u.WriteControl(1, 1<<7|1<<2)
	if u.runningMask&(1<<1) != 0 {
		t.Fatal("cascaded timer must not be advanced directly by Tick")
	}
}

type fakeNotifier struct{ calls []int }

func (f *fakeNotifier) OnTimerOverflow(i int) { f.calls = append(f.calls, i) }

func TestOverflowNotifiesSoundForTimer0And1Only(t *testing.T) {
	ic := irq.New()
	n := &fakeNotifier{}
	u := New(ic, n)
	u.WriteReload(0, 0xFFFF)
	u.WriteControl(0, 1<<7)
	u.WriteReload(2, 0xFFFF)
	u.WriteControl(2, 1<<7)

	u.Tick(1)
	if len(n.calls) != 1 || n.calls[0] != 0 {
		t.Fatalf("expected one notify for timer0, got %v", n.calls)
	}
}
