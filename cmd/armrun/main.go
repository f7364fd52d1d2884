// Command armrun loads a flat ARM/THUMB binary into GBA ROM space and runs
// it headlessly, printing a register trace. It is the GBA-core equivalent
// of cmd/cpurunner: no serial-port pass/fail detection (the GBA has no
// analogous standardized test protocol), just a step-count-bounded run with
// optional per-instruction tracing and a trace-on-timeout ring buffer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/advance-core/gba/internal/machine"
)

type traceEntry struct {
	pc   uint32
	cyc  int
	r    [16]uint32
	cpsr uint32
}

func main() {
	romPath := flag.String("rom", "", "path to a flat ARM/THUMB binary")
	biosPath := flag.String("bios", "", "optional GBA BIOS image; without one the core starts via SkipBIOS")
	steps := flag.Int("steps", 1_000_000, "max CPU steps to run")
	trace := flag.Bool("trace", false, "print PC/registers every step")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions kept for the dump printed on timeout")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s); 0 disables")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var bios []byte
	if *biosPath != "" {
		bios, err = os.ReadFile(*biosPath)
		if err != nil {
			log.Fatalf("read bios: %v", err)
		}
	}

	m := machine.New(machine.Config{ROM: rom, BIOS: bios})
	if len(bios) == 0 {
		m.SkipBIOS()
	}

	ring := make([]traceEntry, *traceWindow)
	ringIdx, ringFill := 0, 0

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	var cycles int
	i := 0
	for ; i < *steps; i++ {
		pc := m.CPU.PC()
		cyc := m.Step()
		cycles += cyc

		if *trace || *traceWindow > 0 {
			var te traceEntry
			te.pc, te.cyc = pc, cyc
			for r := 0; r < 16; r++ {
				te.r[r] = m.CPU.Regs().Get(r)
			}
			te.cpsr = m.CPU.Regs().CPSR().Pack()
			if *trace {
				printTrace(te)
			}
			if *traceWindow > 0 {
				ring[ringIdx] = te
				ringIdx = (ringIdx + 1) % *traceWindow
				if ringFill < *traceWindow {
					ringFill++
				}
			}
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			dumpTrace(ring, ringIdx, ringFill)
			fmt.Printf("\nDone: steps=%d cycles=%d elapsed=%s\n", i+1, cycles, time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}

	dur := time.Since(start)
	fmt.Printf("\nDone: steps=%d cycles=%d elapsed=%s\n", i, cycles, dur.Truncate(time.Millisecond))
}

func printTrace(te traceEntry) {
	fmt.Printf("PC=%08X cyc=%d R0=%08X R1=%08X R13=%08X R14=%08X CPSR=%08X\n",
		te.pc, te.cyc, te.r[0], te.r[1], te.r[13], te.r[14], te.cpsr)
}

// dumpTrace prints ring in chronological order, the same "recent trace
// window" idea cmd/cpurunner's -traceOnFail used for serial-test failures.
func dumpTrace(ring []traceEntry, ringIdx, ringFill int) {
	if ringFill == 0 {
		return
	}
	window := len(ring)
	fmt.Printf("\n--- recent trace (last %d instructions) ---\n", ringFill)
	startIdx := (ringIdx - ringFill + window) % window
	for j := 0; j < ringFill; j++ {
		idx := (startIdx + j) % window
		printTrace(ring[idx])
	}
	fmt.Printf("--- end trace ---\n")
}
