// Package irq models the GBA interrupt controller: the IE/IF/IME register
// trio and the pending-interrupt predicate the CPU core samples at
// instruction boundaries.
package irq

import (
	"bytes"
	"encoding/gob"
)

// Interrupt source bits, as laid out in IE/IF (0x04000200/0x04000202).
const (
	VBlank = iota
	HBlank
	VCount
	Timer0
	Timer1
	Timer2
	Timer3
	Serial
	Dma0
	Dma1
	Dma2
	Dma3
	Keypad
	GamePak
)

// NumSources is the number of interrupt bits the GBA defines (0..13).
const NumSources = 14

// Controller holds IE, IF and IME and answers whether the CPU should take
// an IRQ exception. It never raises exceptions itself; CpuCore samples
// Pending() once per instruction boundary, as spec.md §4.7 requires.
type Controller struct {
	ie  uint16 // enable mask, 14 bits used
	ifr uint16 // request flags, write-1-to-clear from the CPU side
	ime bool
}

// New returns a Controller with all interrupts masked and IME disabled,
// matching hardware reset state.
func New() *Controller {
	return &Controller{}
}

// Raise sets IF bit `source`. Called by DMA/Timer/GpuTiming/Serial/Keypad
// collaborators; never cleared here — only a CPU write-1-to-clear does that.
func (c *Controller) Raise(source int) {
	if source < 0 || source >= NumSources {
		return
	}
	c.ifr |= 1 << uint(source)
}

// Pending reports whether the CPU should vector to the IRQ exception:
// IME set and at least one enabled source has its flag set.
func (c *Controller) Pending() bool {
	return c.ime && c.ie&c.ifr != 0
}

// PendingMask reports whether any enabled source is flagged regardless of
// IME — this is the mask HALT uses to decide whether to wake up, since a
// halted CPU resumes execution on IE&IF!=0 even with IME=0 or CPSR.I set
// (see DESIGN.md, HALTCNT open-question resolution).
func (c *Controller) PendingMask() bool {
	return c.ie&c.ifr != 0
}

// ReadIE returns the 16-bit IE register value (0x04000200).
func (c *Controller) ReadIE() uint16 { return c.ie }

// WriteIE sets the IE register. Only the low 14 bits are defined.
func (c *Controller) WriteIE(v uint16) { c.ie = v & 0x3FFF }

// ReadIF returns the 16-bit IF register value (0x04000202).
func (c *Controller) ReadIF() uint16 { return c.ifr }

// WriteIF clears the bits set in v (write-1-to-clear), the GBA's IF
// semantics — distinct from the DMG IF register, which is plain read/write.
func (c *Controller) WriteIF(v uint16) { c.ifr &^= v }

// ReadIME returns IME as a 16-bit value (only bit 0 is meaningful).
func (c *Controller) ReadIME() uint16 {
	if c.ime {
		return 1
	}
	return 0
}

// WriteIME sets IME from bit 0 of v.
func (c *Controller) WriteIME(v uint16) { c.ime = v&1 != 0 }

type controllerState struct {
	IE, IF uint16
	IME    bool
}

// SaveState serializes the controller, following the bus.SaveState gob
// convention used across this module.
func (c *Controller) SaveState() []byte {
	var buf bytes.Buffer
	gob.NewEncoder(&buf).Encode(controllerState{c.ie, c.ifr, c.ime})
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState. Corrupt/foreign data
// is ignored, leaving the controller unchanged.
func (c *Controller) LoadState(data []byte) {
	var s controllerState
	if gob.NewDecoder(bytes.NewReader(data)).Decode(&s) != nil {
		return
	}
	c.ie, c.ifr, c.ime = s.IE, s.IF, s.IME
}
