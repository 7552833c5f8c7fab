package network

const minBufferCapacity = 16

// SnapshotBuffer is a growable ring of snapshots in arrival order. It is owned
// by the render tick; arrivals from other goroutines go through the observer
// inbox instead of touching the buffer directly.
type SnapshotBuffer struct {
	ring []Snapshot // len(ring) is always a power of two
	head int
	n    int
}

// NewSnapshotBuffer returns an empty buffer with room for at least capacity
// entries before it has to grow.
func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	size := minBufferCapacity
	for size < capacity {
		size <<= 1
	}
	return &SnapshotBuffer{ring: make([]Snapshot, size)}
}

// Append adds s to the back. Arrival order is trusted; no ordering check is made.
func (b *SnapshotBuffer) Append(s Snapshot) {
	if b.ring == nil {
		b.ring = make([]Snapshot, minBufferCapacity)
	}
	if b.n == len(b.ring) {
		b.grow()
	}
	b.ring[b.index(b.n)] = s
	b.n++
}

// Len returns the number of buffered snapshots.
func (b *SnapshotBuffer) Len() int {
	return b.n
}

// At returns the i-th oldest snapshot. It panics when i is out of range.
func (b *SnapshotBuffer) At(i int) Snapshot {
	if i < 0 || i >= b.n {
		panic("network: snapshot index out of range")
	}
	return b.ring[b.index(i)]
}

// Trim drops front entries that renderTime has moved past. An entry is dropped
// only when the one after it is at or before renderTime, and two entries are
// always kept so a bracket exists even if the producer stalls. It returns the
// number of entries dropped.
func (b *SnapshotBuffer) Trim(renderTime float64) int {
	dropped := 0
	for b.n > 2 && b.At(1).SnapTimeMs <= renderTime {
		b.ring[b.head] = Snapshot{}
		b.head = (b.head + 1) & (len(b.ring) - 1)
		b.n--
		dropped++
	}
	return dropped
}

// Bracket returns the two oldest entries. ok is false until two snapshots
// have arrived.
func (b *SnapshotBuffer) Bracket() (from, to Snapshot, ok bool) {
	if b.n < 2 {
		return Snapshot{}, Snapshot{}, false
	}
	return b.At(0), b.At(1), true
}

// Restamp moves the second-oldest entry to time t. The idle hold uses it so
// a resting pose is not waited on once newer snapshots arrive.
func (b *SnapshotBuffer) Restamp(t float64) {
	if b.n < 2 {
		return
	}
	i := b.index(1)
	b.ring[i] = b.ring[i].withTime(t)
}

// Reset empties the buffer and keeps its storage.
func (b *SnapshotBuffer) Reset() {
	clear(b.ring)
	b.head = 0
	b.n = 0
}

func (b *SnapshotBuffer) index(i int) int {
	return (b.head + i) & (len(b.ring) - 1)
}

func (b *SnapshotBuffer) grow() {
	next := make([]Snapshot, len(b.ring)*2)
	for i := 0; i < b.n; i++ {
		next[i] = b.ring[b.index(i)]
	}
	b.ring = next
	b.head = 0
}
