// Package sound implements only the SoundController external-collaborator
// contract from spec.md §6 — the FIFO buffers DmaEngine and TimerUnit drive
// and the overflow/drain hooks that connect them. Audio mixing (the four
// PSG channels plus the digital FIFO channels' actual waveform synthesis)
// is an explicit non-goal; this package never produces samples.
package sound

// Controller is the contract TimerUnit calls on timer 0/1 overflow. No
// core component calls WriteFIFO: DMA writes to the FIFO registers reach a
// FIFO's Push through internal/bus.
type Controller interface {
	OnTimerOverflow(timerIndex int)
	WriteFIFO(channel int, value int8)
}

const fifoDepth = 32

// FIFO is a small ring buffer modeling one of the GBA's two digital audio
// FIFOs (FIFO A / FIFO B), fed 32 bits at a time by DmaEngine and drained
// one byte per sample tick by a (not-in-scope) mixer.
type FIFO struct {
	buf        [fifoDepth]int8
	head, tail int
	count      int

	notifier   DrainNotifier
	addrHolder uint32
}

// DrainNotifier is called when a FIFO drops to or below half-full, the
// GBA's real refill threshold for triggering another FIFO DMA burst.
type DrainNotifier interface {
	NotifyFIFO(fifoAddr uint32)
}

// NewFIFO returns an empty FIFO that calls n.NotifyFIFO(addr) when it needs
// refilling.
func NewFIFO(n DrainNotifier, addr uint32) *FIFO {
	return &FIFO{notifier: n, addrHolder: addr}
}

// Push writes one sample into the FIFO, dropping the oldest sample if full
// (matches hardware: a 32-byte FIFO silently wraps rather than blocking).
func (f *FIFO) Push(v int8) {
	if f.count == fifoDepth {
		f.head = (f.head + 1) % fifoDepth
		f.count--
	}
	f.buf[f.tail] = v
	f.tail = (f.tail + 1) % fifoDepth
	f.count++
}

// Pop removes and returns the oldest sample, notifying for refill once the
// FIFO drops to half capacity or below.
func (f *FIFO) Pop() int8 {
	if f.count == 0 {
		return 0
	}
	v := f.buf[f.head]
	f.head = (f.head + 1) % fifoDepth
	f.count--
	if f.count <= fifoDepth/2 && f.notifier != nil {
		f.notifier.NotifyFIFO(f.addrHolder)
	}
	return v
}

// Len reports the number of buffered samples.
func (f *FIFO) Len() int { return f.count }
