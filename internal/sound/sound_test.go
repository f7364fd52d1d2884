package sound

import "testing"

type recordingNotifier struct{ addrs []uint32 }

func (r *recordingNotifier) NotifyFIFO(addr uint32) { r.addrs = append(r.addrs, addr) }

func TestFIFOFIFOOrder(t *testing.T) {
	f := NewFIFO(nil, 0x040000A0)
	f.Push(1)
	f.Push(2)
	f.Push(3)
	if v := f.Pop(); v != 1 {
		t.Fatalf("Pop = %d, want 1", v)
	}
	if v := f.Pop(); v != 2 {
		t.Fatalf("Pop = %d, want 2", v)
	}
}

func TestFIFONotifiesAtHalfFull(t *testing.T) {
	n := &recordingNotifier{}
	f := NewFIFO(n, 0x040000A0)
	for i := 0; i < 20; i++ {
		f.Push(int8(i))
	}
	for i := 0; i < 3; i++ {
		f.Pop()
	}
	if len(n.addrs) != 0 {
		t.Fatalf("should not notify above half-full yet, got %d notifies", len(n.addrs))
	}
	for i := 0; i < 8; i++ {
		f.Pop()
	}
	if len(n.addrs) == 0 {
		t.Fatal("expected a refill notification once at/below half capacity")
	}
	if n.addrs[0] != 0x040000A0 {
		t.Fatalf("notified wrong fifo address: %#x", n.addrs[0])
	}
}

func TestFIFODropsOldestWhenFull(t *testing.T) {
	f := NewFIFO(nil, 0)
	for i := 0; i < fifoDepth+4; i++ {
		f.Push(int8(i))
	}
	if f.Len() != fifoDepth {
		t.Fatalf("len = %d, want capped at %d", f.Len(), fifoDepth)
	}
	if v := f.Pop(); v != 4 {
		t.Fatalf("oldest remaining sample = %d, want 4", v)
	}
}
