package cpu

// PipelineState models the ARM7TDMI's 2-stage-visible fetch pipeline (the
// 3rd, decode, stage has no architectural state of its own): pipeline[0]
// is the instruction currently executing, pipeline[1] is the one already
// fetched and awaiting execution next cycle.
type PipelineState struct {
	word       [2]uint32
	nextFetchAccess int // BusSeq or BusNonSeq: hint for the next fetch's cost
}

// flush clears the pipeline and marks the next fetch as non-sequential
// (the one after it is sequential again), the state after any PC-changing
// operation (branch,
// exception entry/return, mode/state switch via MOV to PC, etc.).
func (p *PipelineState) flush() {
	p.word[0] = 0
	p.word[1] = 0
	p.nextFetchAccess = BusNonSeq
}
