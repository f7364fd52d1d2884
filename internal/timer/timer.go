// Package timer models the GBA's four 16-bit timers: prescaled free-running
// counters with optional cascading and IRQ-on-overflow, plus the timer0/1
// overflow notification the sound FIFOs rely on for DMA-driven playback.
package timer

import (
	"bytes"
	"encoding/gob"

	"github.com/advance-core/gba/internal/irq"
)

// prescalerShift maps TIMER_CNT.Prescaler (bits 0-1) to a shift amount:
// divider values 1/64/256/1024 cycles per tick.
var prescalerShift = [4]uint{0, 6, 8, 10}

// Notifier receives timer overflow notifications, used by the sound FIFO
// collaborator to resample/drain on timer 0 or timer 1 overflow.
type Notifier interface {
	OnTimerOverflow(index int)
}

// Timer is one of the four independent 16-bit counters.
type Timer struct {
	index int

	reload  uint16 // TMxCNT_L on write; reloaded into counter on overflow
	counter uint16 // live counter value

	enabled  bool
	cascade  bool // count on previous timer's overflow instead of cycles
	irqOnOvf bool
	prescale uint8 // 0..3, indexes prescalerShift

	cycleAcc uint64 // cycles accumulated toward the next prescaled tick
}

// Unit owns all four timers and the running-timer bitmask that lets the
// driving bus skip cascaded/disabled timers in its cycle-stepped loop.
type Unit struct {
	timers [4]Timer
	// runningMask has bit i set iff timers[i] is enabled and not cascaded:
	// only those are advanced directly by Tick; cascaded timers advance
	// solely through the preceding timer's overflow, never by cycle count,
	// even while "enabled" — this mirrors the original's running_timers set.
	runningMask uint8

	irq      *irq.Controller
	notifier Notifier
}

// New returns a Unit with all timers stopped, wired to raise IRQs on ic and
// notify n of timer0/timer1 overflows (n may be nil).
func New(ic *irq.Controller, n Notifier) *Unit {
	u := &Unit{irq: ic, notifier: n}
	for i := range u.timers {
		u.timers[i].index = i
	}
	return u
}

// Tick advances every running (enabled, non-cascaded) timer by cycles
// cycles, cascading into dependent timers as they overflow.
func (u *Unit) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < 4; i++ {
		if u.runningMask&(1<<uint(i)) == 0 {
			continue
		}
		u.advance(i, uint64(cycles))
	}
}

// advance runs timer i forward by `cycles` raw CPU cycles, applying its
// prescaler, and cascades overflow into timer i+1 when present.
func (u *Unit) advance(i int, cycles uint64) {
	t := &u.timers[i]
	shift := prescalerShift[t.prescale]
	t.cycleAcc += cycles
	ticks := t.cycleAcc >> shift
	t.cycleAcc &= (1 << shift) - 1
	if ticks == 0 {
		return
	}
	overflows := u.runCounter(t, ticks)
	if overflows > 0 {
		u.onOverflow(t, overflows)
	}
}

// runCounter advances t.counter by `ticks` prescaled ticks, reloading from
// t.reload on each overflow, and returns the number of overflows observed.
// Overflows are counted with one division over the reload span and the
// new counter taken with one modulo, so a single call stays correct even
// when ticks spans more than 0x10000-reload counts (pathological but legal
// with a very small reload value and a long Tick burst).
func (u *Unit) runCounter(t *Timer, ticks uint64) uint64 {
	span := uint64(0x10000) - uint64(t.reload)
	if span == 0 {
		span = 0x10000
	}
	remaining := uint64(t.counter) + ticks
	var overflows uint64
	if remaining < 0x10000 {
		t.counter = uint16(remaining)
		return 0
	}
	remaining -= 0x10000
	overflows = 1 + remaining/span
	t.counter = uint16(uint64(t.reload) + remaining%span)
	return overflows
}

// onOverflow fires the timer's IRQ (once, regardless of overflow count —
// the GBA only sees one IRQ edge even on multi-overflow bursts), notifies
// the sound collaborator for timer 0/1, and cascades into the next timer.
func (u *Unit) onOverflow(t *Timer, overflows uint64) {
	if t.irqOnOvf && u.irq != nil {
		u.irq.Raise(irq.Timer0 + t.index)
	}
	if u.notifier != nil && t.index < 2 {
		u.notifier.OnTimerOverflow(t.index)
	}
	if t.index < 3 {
		next := &u.timers[t.index+1]
		if next.enabled && next.cascade {
			u.cascadeOverflow(next, overflows)
		}
	}
}

// cascadeOverflow advances a cascaded timer by exactly `n` counts — it is
// never driven by Tick's cycle budget, only by the timer below it
// overflowing, regardless of whether it is itself "running" in runningMask.
func (u *Unit) cascadeOverflow(t *Timer, n uint64) {
	overflows := u.runCounter(t, n)
	if overflows > 0 {
		u.onOverflow(t, overflows)
	}
}

// internal/bus addresses TMxCNT_L/TMxCNT_H by calling the matching method
// below with the timer index.

// ReadCounter returns the live counter value for timer i (TMxCNT_L reads).
func (u *Unit) ReadCounter(i int) uint16 { return u.timers[i].counter }

// WriteReload sets the reload value for timer i (TMxCNT_L writes). It does
// not affect the live counter until the next overflow, matching hardware.
func (u *Unit) WriteReload(i int, v uint16) { u.timers[i].reload = v }

// ReadControl returns TMxCNT_H: prescaler(0-1), cascade(2), irq-enable(6),
// enable(7).
func (u *Unit) ReadControl(i int) uint16 {
	t := &u.timers[i]
	var v uint16
	v |= uint16(t.prescale)
	if t.cascade {
		v |= 1 << 2
	}
	if t.irqOnOvf {
		v |= 1 << 6
	}
	if t.enabled {
		v |= 1 << 7
	}
	return v
}

// WriteControl applies a TMxCNT_H write. Timer 0 cannot cascade (there is
// no preceding timer); the bit is accepted but has no effect, matching
// hardware behavior described in the original source.
func (u *Unit) WriteControl(i int, v uint16) {
	t := &u.timers[i]
	wasEnabled := t.enabled
	t.prescale = uint8(v & 0x3)
	t.cascade = v&(1<<2) != 0 && i != 0
	t.irqOnOvf = v&(1<<6) != 0
	t.enabled = v&(1<<7) != 0

	if t.enabled && !wasEnabled {
		// Enabling reloads the counter immediately and resets the
		// prescaler phase, matching the original's start-on-enable-edge.
		t.counter = t.reload
		t.cycleAcc = 0
	}
	u.recomputeRunningMask()
}

func (u *Unit) recomputeRunningMask() {
	u.runningMask = 0
	for i, t := range u.timers {
		if t.enabled && !t.cascade {
			u.runningMask |= 1 << uint(i)
		}
	}
}

type timerState struct {
	Reload, Counter                uint16
	Enabled, Cascade, IRQOnOverflow bool
	Prescale                        uint8
	CycleAcc                        uint64
}

type unitState struct {
	Timers      [4]timerState
	RunningMask uint8
}

// SaveState serializes all four timers via gob, the module's established
// snapshot convention.
func (u *Unit) SaveState() []byte {
	var s unitState
	for i, t := range u.timers {
		s.Timers[i] = timerState{t.reload, t.counter, t.enabled, t.cascade, t.irqOnOvf, t.prescale, t.cycleAcc}
	}
	s.RunningMask = u.runningMask
	var buf bytes.Buffer
	gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (u *Unit) LoadState(data []byte) {
	var s unitState
	if gob.NewDecoder(bytes.NewReader(data)).Decode(&s) != nil {
		return
	}
	for i, ts := range s.Timers {
		u.timers[i].reload = ts.Reload
		u.timers[i].counter = ts.Counter
		u.timers[i].enabled = ts.Enabled
		u.timers[i].cascade = ts.Cascade
		u.timers[i].irqOnOvf = ts.IRQOnOverflow
		u.timers[i].prescale = ts.Prescale
		u.timers[i].cycleAcc = ts.CycleAcc
	}
	u.runningMask = s.RunningMask
}
