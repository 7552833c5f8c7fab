package netcomponents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLerpVec3(t *testing.T) {
	t.Parallel()

	from := Vec3{X: 0, Y: 0, Z: 0}
	to := Vec3{X: 10, Y: -4, Z: 2}

	assert.Equal(t, from, LerpVec3(from, to, 0))
	assert.Equal(t, to, LerpVec3(from, to, 1))
	assert.Equal(t, Vec3{X: 2.5, Y: -1, Z: 0.5}, LerpVec3(from, to, 0.25))
}

func TestLerpVec3_Unclamped(t *testing.T) {
	t.Parallel()

	got := LerpVec3(Vec3{}, Vec3{X: 10}, 1.5)
	assert.Equal(t, 15.0, got.X)

	got = LerpVec3(Vec3{}, Vec3{X: 10}, -0.5)
	assert.Equal(t, -5.0, got.X)
}

func TestLerpTransform(t *testing.T) {
	t.Parallel()

	from := Identity()
	to := TransformData{
		Position: Vec3{X: 4},
		Rotation: Vec3{Y: 2},
		Scale:    Vec3{X: 3, Y: 3, Z: 3},
	}

	got := LerpTransform(from, to, 0.5)
	assert.Equal(t, Vec3{X: 2}, got.Position)
	assert.Equal(t, Vec3{Y: 1}, got.Rotation)
	assert.Equal(t, Vec3{X: 2, Y: 2, Z: 2}, got.Scale)
}
