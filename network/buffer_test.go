package network

import (
	"testing"

	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapAt(ms float64, x float64) Snapshot {
	return Snapshot{
		Transform:  netcomponents.TransformData{Position: netcomponents.Vec3{X: x}},
		SnapTimeMs: ms,
	}
}

func fillBuffer(times ...float64) *SnapshotBuffer {
	b := NewSnapshotBuffer(0)
	for _, ms := range times {
		b.Append(snapAt(ms, ms))
	}
	return b
}

func TestSnapshotBuffer_AppendKeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	b := fillBuffer(10, 5, 30)
	require.Equal(t, 3, b.Len())
	assert.Equal(t, 10.0, b.At(0).SnapTimeMs)
	assert.Equal(t, 5.0, b.At(1).SnapTimeMs, "arrival order is trusted")
	assert.Equal(t, 30.0, b.At(2).SnapTimeMs)
}

func TestSnapshotBuffer_GrowsPastInitialCapacity(t *testing.T) {
	t.Parallel()

	b := NewSnapshotBuffer(0)
	for i := 0; i < 100; i++ {
		b.Append(snapAt(float64(i), 0))
		if i%3 == 0 {
			b.Trim(float64(i) - 5)
		}
	}
	for i := 1; i < b.Len(); i++ {
		assert.Less(t, b.At(i-1).SnapTimeMs, b.At(i).SnapTimeMs)
	}
	assert.Equal(t, 99.0, b.At(b.Len()-1).SnapTimeMs)
}

func TestSnapshotBuffer_Trim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		times      []float64
		renderTime float64
		wantFront  float64
		wantLen    int
	}{
		{"before history", []float64{0, 100, 200}, -50, 0, 3},
		{"inside first bracket", []float64{0, 100, 200}, 50, 0, 3},
		{"exactly on second entry", []float64{0, 100, 200}, 100, 100, 2},
		{"inside second bracket", []float64{0, 100, 200, 300}, 150, 100, 3},
		{"past history keeps two", []float64{0, 100, 200, 300}, 1000, 200, 2},
		{"two entries never trimmed", []float64{0, 100}, 1000, 0, 2},
		{"single entry", []float64{0}, 1000, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := fillBuffer(tt.times...)
			b.Trim(tt.renderTime)
			assert.Equal(t, tt.wantLen, b.Len())
			assert.Equal(t, tt.wantFront, b.At(0).SnapTimeMs)
		})
	}
}

func TestSnapshotBuffer_BracketingInvariant(t *testing.T) {
	t.Parallel()

	b := NewSnapshotBuffer(0)
	for ms := 0.0; ms <= 1000; ms += 33 {
		b.Append(snapAt(ms, 0))
	}
	newest := b.At(b.Len() - 1).SnapTimeMs

	for render := -10.0; render < 1100; render += 7 {
		b.Trim(render)
		from, to, ok := b.Bracket()
		require.True(t, ok)

		if render >= 0 && render <= newest {
			assert.LessOrEqual(t, from.SnapTimeMs, render)
			if b.Len() > 2 {
				assert.Greater(t, to.SnapTimeMs, render)
			}
		} else if render > newest {
			assert.Equal(t, 2, b.Len(), "only the cold tail remains past history")
		}
	}
}

func TestSnapshotBuffer_Bracket(t *testing.T) {
	t.Parallel()

	_, _, ok := fillBuffer(1).Bracket()
	assert.False(t, ok)

	from, to, ok := fillBuffer(1, 2, 3).Bracket()
	require.True(t, ok)
	assert.Equal(t, 1.0, from.SnapTimeMs)
	assert.Equal(t, 2.0, to.SnapTimeMs)
}

func TestSnapshotBuffer_Restamp(t *testing.T) {
	t.Parallel()

	b := fillBuffer(0, 100, 200)
	b.Restamp(150)
	assert.Equal(t, 150.0, b.At(1).SnapTimeMs)
	assert.Equal(t, 100.0, b.At(1).Transform.Position.X, "pose is preserved")

	single := fillBuffer(5)
	single.Restamp(99)
	assert.Equal(t, 5.0, single.At(0).SnapTimeMs)
}

func TestSnapshotBuffer_Reset(t *testing.T) {
	t.Parallel()

	b := fillBuffer(0, 1, 2)
	b.Reset()
	assert.Equal(t, 0, b.Len())

	b.Append(snapAt(7, 0))
	assert.Equal(t, 7.0, b.At(0).SnapTimeMs)
}

func TestSnapshotBuffer_AtOutOfRange(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { fillBuffer(1).At(1) })
}
