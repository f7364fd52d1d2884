// Package dma models the GBA's four-channel DMA engine: enable-edge latched
// transfers, VBlank/HBlank/Special timing, and the FIFO fast path used by
// the sound collaborator's digital audio channels.
package dma

import (
	"bytes"
	"encoding/gob"
)

// Timing modes for DmaChannelCtrl's start-timing bits (12-13).
const (
	TimingImmediate = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// Address adjustment modes for src/dst control bits.
const (
	AdjustIncrement = iota
	AdjustDecrement
	AdjustFixed
	AdjustIncrementReload // dst only, legal only with repeat
)

const (
	fifoAddrA = 0x040000A0
	fifoAddrB = 0x040000A4
)

// Bus is the minimal memory surface DmaEngine needs: word/halfword
// read/write against the system bus, addressed exactly as the CPU would.
type Bus interface {
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

// IRQRaiser is satisfied by internal/irq.Controller.
type IRQRaiser interface {
	Raise(source int)
}

// EEPROMNotifier is the cart-backup hook DMA channel 3 drives for
// 16-bit-width transfers, per spec.md §6's EEPROM bit-serial contract.
type EEPROMNotifier interface {
	OnDMA3(src, dst uint32, count uint32)
}

// internalRegs holds the latched (post-enable-edge) working copies of a
// channel's source/destination/count — the registers a transfer actually
// runs with, distinct from the raw I/O-visible fields which keep their
// CPU-written values across repeats.
type internalRegs struct {
	src, dst uint32
	count    uint32
}

// Channel is one of the four DMA channels.
type Channel struct {
	index int

	srcAddr, dstAddr uint32
	wordCount        uint32

	dstAdjust, srcAdjust uint8
	repeat               bool
	wordWidth32          bool // false=16-bit, true=32-bit
	timing               uint8
	irqOnEnd             bool
	enabled              bool

	internal internalRegs

	pendingStart bool // enable edge seen, waiting out the 3-cycle start delay
	startDelay   int
}

func (c *Channel) isFifoMode() bool {
	return (c.index == 1 || c.index == 2) && c.timing == TimingSpecial && c.repeat &&
		(c.dstAddr == fifoAddrA || c.dstAddr == fifoAddrB)
}

func (c *Channel) countMask() uint32 {
	if c.index == 3 {
		return 0x10000
	}
	return 0x4000
}

// Engine owns all four channels and services them in ascending priority
// order whenever more than one is pending in the same cycle.
type Engine struct {
	channels [4]Channel
	bus      Bus
	irq      IRQRaiser
	eeprom   EEPROMNotifier

	pendingSet uint8 // bit i: channel i has a latched transfer ready to run
}

// New wires a DMA Engine to the system bus, interrupt controller and the
// optional EEPROM backup hook (may be nil when no backup is attached).
func New(bus Bus, ic IRQRaiser, eeprom EEPROMNotifier) *Engine {
	e := &Engine{bus: bus, irq: ic, eeprom: eeprom}
	for i := range e.channels {
		e.channels[i].index = i
	}
	return e
}

// WriteSrc, WriteDst, WriteCount set the raw I/O-visible registers
// (DMAxSAD/DAD/CNT_L). These are not the registers a running transfer uses;
// those are latched into `internal` on the enable rising edge.
func (e *Engine) WriteSrc(i int, v uint32)   { e.channels[i].srcAddr = v }
func (e *Engine) WriteDst(i int, v uint32)   { e.channels[i].dstAddr = v }
func (e *Engine) WriteCount(i int, v uint16) { e.channels[i].wordCount = uint32(v) }

// WriteControl applies a DMAxCNT_H write, latching src/dst/count on the
// enable rising edge and scheduling the 3-cycle start delay for
// Immediate-timing channels, exactly as spec.md §4.9 describes.
func (e *Engine) WriteControl(i int, v uint16) {
	c := &e.channels[i]
	wasEnabled := c.enabled

	c.dstAdjust = uint8((v >> 5) & 0x3)
	c.srcAdjust = uint8((v >> 7) & 0x3)
	c.repeat = v&(1<<9) != 0
	c.wordWidth32 = v&(1<<10) != 0
	c.timing = uint8((v >> 12) & 0x3)
	c.irqOnEnd = v&(1<<14) != 0
	c.enabled = v&(1<<15) != 0

	if c.enabled && !wasEnabled {
		c.internal.src = c.srcAddr
		c.internal.dst = c.dstAddr
		count := c.wordCount
		if count == 0 {
			count = c.countMask()
		}
		c.internal.count = count

		if c.timing == TimingImmediate {
			c.pendingStart = true
			c.startDelay = 3
		}
	}
	if !c.enabled {
		c.pendingStart = false
	}
}

// ReadControl reconstructs DMAxCNT_H for CPU reads.
func (e *Engine) ReadControl(i int) uint16 {
	c := &e.channels[i]
	var v uint16
	v |= uint16(c.dstAdjust) << 5
	v |= uint16(c.srcAdjust) << 7
	if c.repeat {
		v |= 1 << 9
	}
	if c.wordWidth32 {
		v |= 1 << 10
	}
	v |= uint16(c.timing) << 12
	if c.irqOnEnd {
		v |= 1 << 14
	}
	if c.enabled {
		v |= 1 << 15
	}
	return v
}

// Tick advances the start-delay countdown for any channel pending an
// Immediate-timing start and then services every channel whose condition
// is currently satisfied, in ascending channel-index priority order.
func (e *Engine) Tick(cycles int) {
	for i := range e.channels {
		c := &e.channels[i]
		if c.pendingStart {
			c.startDelay -= cycles
			if c.startDelay <= 0 {
				c.pendingStart = false
				e.pendingSet |= 1 << uint(i)
			}
		}
	}
	e.serviceAll()
}

// NotifyVBlank marks every enabled VBlank-timing channel pending. Called by
// GpuTiming on VBlank entry.
func (e *Engine) NotifyVBlank() { e.notifyTiming(TimingVBlank) }

// NotifyHBlank marks every enabled HBlank-timing channel pending. Called by
// GpuTiming on the HBlank entry of each visible line (0-159); HBlanks
// during VBlank do not notify.
func (e *Engine) NotifyHBlank() { e.notifyTiming(TimingHBlank) }

func (e *Engine) notifyTiming(timing uint8) {
	for i := range e.channels {
		c := &e.channels[i]
		if c.enabled && c.timing == timing {
			e.pendingSet |= 1 << uint(i)
		}
	}
	e.serviceAll()
}

// NotifyFIFO marks channel 1 and/or 2 pending if they are configured as the
// FIFO source for the given FIFO address (0x040000A0 / 0x040000A4); called
// by the sound collaborator when it drains below the refill threshold.
func (e *Engine) NotifyFIFO(fifoAddr uint32) {
	for i := 1; i <= 2; i++ {
		c := &e.channels[i]
		if c.enabled && c.isFifoMode() && c.dstAddr == fifoAddr {
			e.pendingSet |= 1 << uint(i)
		}
	}
	e.serviceAll()
}

func (e *Engine) serviceAll() {
	for e.pendingSet != 0 {
		i := lowestSetBit(e.pendingSet)
		e.pendingSet &^= 1 << uint(i)
		e.run(i)
	}
}

func lowestSetBit(mask uint8) int {
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			return i
		}
	}
	return 0
}

// run executes one full transfer for channel i. DMA is modeled as
// instantaneous from the cycle-stepping loop's perspective: no bus cycles
// are charged for a transfer, neither here nor in internal/bus. run only
// applies the documented addressing and FIFO-bypass rules.
func (e *Engine) run(i int) {
	c := &e.channels[i]
	if c.isFifoMode() {
		e.runFifo(c)
	} else {
		e.runNormal(c)
	}

	if c.index == 3 && !c.wordWidth32 && e.eeprom != nil {
		e.eeprom.OnDMA3(c.internal.src, c.internal.dst, c.internal.count)
	}
	if c.irqOnEnd && e.irq != nil {
		e.irq.Raise(8 + c.index) // Dma0..Dma3
	}

	if c.repeat && c.timing != TimingImmediate {
		count := c.wordCount
		if count == 0 {
			count = c.countMask()
		}
		c.internal.count = count
		if c.dstAdjust == AdjustIncrementReload {
			c.internal.dst = c.dstAddr
		}
	} else {
		c.enabled = false
	}
}

// runFifo always transfers exactly 4 words of 32 bits each to the FIFO
// address, leaving src/dst untouched on the destination side (the FIFO is
// a fixed write port), matching hardware FIFO-DMA behavior.
func (e *Engine) runFifo(c *Channel) {
	for n := 0; n < 4; n++ {
		v := e.bus.Read32(c.internal.src)
		e.bus.Write32(c.internal.dst, v)
		c.internal.src += 4
	}
}

func (e *Engine) runNormal(c *Channel) {
	width := uint32(2)
	if c.wordWidth32 {
		width = 4
	}
	for n := uint32(0); n < c.internal.count; n++ {
		if c.wordWidth32 {
			e.bus.Write32(c.internal.dst, e.bus.Read32(c.internal.src))
		} else {
			e.bus.Write16(c.internal.dst, e.bus.Read16(c.internal.src))
		}
		c.internal.src = adjust(c.internal.src, c.srcAdjust, width)
		c.internal.dst = adjust(c.internal.dst, c.dstAdjust, width)
	}
}

func adjust(addr uint32, mode uint8, width uint32) uint32 {
	switch mode {
	case AdjustIncrement, AdjustIncrementReload:
		return addr + width
	case AdjustDecrement:
		return addr - width
	default: // AdjustFixed
		return addr
	}
}

type channelState struct {
	SrcAddr, DstAddr, WordCount       uint32
	DstAdjust, SrcAdjust              uint8
	Repeat, WordWidth32, IRQOnEnd, Enabled bool
	Timing                            uint8
	InternalSrc, InternalDst, InternalCount uint32
	PendingStart                      bool
	StartDelay                        int
}

type engineState struct {
	Channels   [4]channelState
	PendingSet uint8
}

// SaveState serializes all four channels via gob.
func (e *Engine) SaveState() []byte {
	var s engineState
	for i, c := range e.channels {
		s.Channels[i] = channelState{
			c.srcAddr, c.dstAddr, c.wordCount,
			c.dstAdjust, c.srcAdjust,
			c.repeat, c.wordWidth32, c.irqOnEnd, c.enabled,
			c.timing,
			c.internal.src, c.internal.dst, c.internal.count,
			c.pendingStart, c.startDelay,
		}
	}
	s.PendingSet = e.pendingSet
	var buf bytes.Buffer
	gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

// LoadState restores a snapshot produced by SaveState.
func (e *Engine) LoadState(data []byte) {
	var s engineState
	if gob.NewDecoder(bytes.NewReader(data)).Decode(&s) != nil {
		return
	}
	for i, cs := range s.Channels {
		c := &e.channels[i]
		c.srcAddr, c.dstAddr, c.wordCount = cs.SrcAddr, cs.DstAddr, cs.WordCount
		c.dstAdjust, c.srcAdjust = cs.DstAdjust, cs.SrcAdjust
		c.repeat, c.wordWidth32, c.irqOnEnd, c.enabled = cs.Repeat, cs.WordWidth32, cs.IRQOnEnd, cs.Enabled
		c.timing = cs.Timing
		c.internal.src, c.internal.dst, c.internal.count = cs.InternalSrc, cs.InternalDst, cs.InternalCount
		c.pendingStart, c.startDelay = cs.PendingStart, cs.StartDelay
	}
	e.pendingSet = s.PendingSet
}
