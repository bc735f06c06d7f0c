package broker

import "sync"

// offsetTracker finds, per partition, the highest offset below which every
// fetched record has completed.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int]*partitionOffsets
}

type partitionOffsets struct {
	inFlight []int64
	done     map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int]*partitionOffsets)}
}

// track must be called in fetch order.
func (t *offsetTracker) track(partition int, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[partition]
	if !ok {
		p = &partitionOffsets{done: make(map[int64]bool)}
		t.partitions[partition] = p
	}
	p.inFlight = append(p.inFlight, offset)
}

// complete marks offset done and reports the new contiguous high mark, if it moved.
func (t *offsetTracker) complete(partition int, offset int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[partition]
	if !ok {
		return 0, false
	}
	p.done[offset] = true

	var mark int64
	moved := false
	for len(p.inFlight) > 0 && p.done[p.inFlight[0]] {
		mark = p.inFlight[0]
		delete(p.done, mark)
		p.inFlight = p.inFlight[1:]
		moved = true
	}
	return mark, moved
}

func (t *offsetTracker) pending(partition int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.partitions[partition]; ok {
		return len(p.inFlight)
	}
	return 0
}
