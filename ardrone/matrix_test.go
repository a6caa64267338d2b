package ardrone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMat4_TransposeTwiceIsIdentity(t *testing.T) {
	m := Mat4{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}
	require.Equal(t, m, m.Transpose().Transpose())
}

func TestMat4_MulIdentity(t *testing.T) {
	identity := Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	m := Mat4{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}
	require.Equal(t, m, identity.Mul(m))
	require.Equal(t, m, m.Mul(identity))
}

func TestMat4_MulVec3DropsHomogeneousRow(t *testing.T) {
	m := Mat4{
		{2, 0, 0, 99},
		{0, 2, 0, 99},
		{0, 0, 2, 99},
		{0, 0, 0, 1},
	}
	got := m.MulVec3(Vector3{X: 1, Y: 2, Z: 3})
	require.Equal(t, Vector3{X: 2, Y: 4, Z: 6}, got)
}

func TestMat4_AtPanicsOutOfRange(t *testing.T) {
	var m Mat4
	require.Panics(t, func() { m.At(4, 0) })
	require.Panics(t, func() { m.At(0, -1) })
}

func TestMat4_AtReadsValue(t *testing.T) {
	m := Mat4{{1, 2}, {3, 4}}
	require.Equal(t, float32(2), m.At(0, 1))
}
