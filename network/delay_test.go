package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDelayController_ClampsInitial(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, NewDelayController(10, 50, 1).OffsetMs())
	assert.Equal(t, 50, NewDelayController(10, 50, 500).OffsetMs())
	assert.Equal(t, 30, NewDelayController(10, 50, 30).OffsetMs())
	assert.Equal(t, 30*time.Millisecond, NewDelayController(10, 50, 30).Offset())
}

func TestDelayController_Observe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		offset    int
		factor    float64
		bufferLen int
		want      Adjustment
		wantMs    int
	}{
		{"underrun raises", 20, 1.2, 2, AdjustIncrease, 21},
		{"underrun with slack still raises", 20, 1.2, 5, AdjustIncrease, 21},
		{"slack lowers", 20, 0.5, 3, AdjustDecrease, 19},
		{"lean buffer holds", 20, 0.5, 2, AdjustNone, 20},
		{"factor of exactly one holds", 20, 1, 2, AdjustNone, 20},
		{"at max with slack lowers", 50, 3, 4, AdjustDecrease, 49},
		{"at max lean holds", 50, 3, 2, AdjustNone, 50},
		{"at min with slack holds", 10, 0.2, 6, AdjustNone, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDelayController(10, 50, tt.offset)
			assert.Equal(t, tt.want, d.Observe(tt.factor, tt.bufferLen))
			assert.Equal(t, tt.wantMs, d.OffsetMs())
		})
	}
}

func TestDelayController_StaysInBounds(t *testing.T) {
	t.Parallel()

	d := NewDelayController(5, 40, 20)
	for i := 0; i < 1000; i++ {
		d.Observe(10, 2)
		assert.LessOrEqual(t, d.OffsetMs(), 40)
	}
	assert.Equal(t, 40, d.OffsetMs())

	for i := 0; i < 1000; i++ {
		d.Observe(0.1, 10)
		assert.GreaterOrEqual(t, d.OffsetMs(), 5)
	}
	assert.Equal(t, 5, d.OffsetMs())
}

func TestAdjustmentString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "increase", AdjustIncrease.String())
	assert.Equal(t, "decrease", AdjustDecrease.String())
	assert.Equal(t, "none", AdjustNone.String())
}
