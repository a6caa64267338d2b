package ardrone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQuaternionFromEuler_Identity(t *testing.T) {
	q := NewQuaternionFromEuler(0, 0, 0)
	require.InDelta(t, 0, float64(q.X), 1e-6)
	require.InDelta(t, 0, float64(q.Y), 1e-6)
	require.InDelta(t, 0, float64(q.Z), 1e-6)
	require.InDelta(t, 1, float64(q.W), 1e-6)
}

func TestNewQuaternionFromEuler_Normalized(t *testing.T) {
	q := NewQuaternionFromEuler(0.3, -0.8, 1.2)
	n := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	require.InDelta(t, 1.0, float64(n), 1e-5)
}

func TestQuaternion_MatrixIsOrthonormal(t *testing.T) {
	q := NewQuaternionFromEuler(0.2, 0.5, -0.1)
	m := q.Matrix()
	mt := m.Transpose()
	product := m.Mul(mt)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			require.InDelta(t, float64(want), float64(product.At(i, j)), 1e-4)
		}
	}
}

func TestQuaternion_MatrixIdentityAtZeroRotation(t *testing.T) {
	q := NewQuaternionFromEuler(0, 0, 0)
	m := q.Matrix()
	v := Vector3{X: 1, Y: 2, Z: 3}
	got := m.MulVec3(v)
	require.InDelta(t, float64(v.X), float64(got.X), 1e-6)
	require.InDelta(t, float64(v.Y), float64(got.Y), 1e-6)
	require.InDelta(t, float64(v.Z), float64(got.Z), 1e-6)
}

func TestQuaternion_RotateAboutZ90Degrees(t *testing.T) {
	// z-rotation by 90 degrees should rotate (1,0,0) body axis toward
	// (0,1,0) in the matrix's own frame, matching the half-angle
	// formula's z term in isolation.
	q := NewQuaternionFromEuler(0, 0, float32(math.Pi/2))
	m := q.Matrix()
	got := m.MulVec3(Vector3{X: 1, Y: 0, Z: 0})
	require.InDelta(t, 0, float64(got.X), 1e-4)
	require.InDelta(t, 1, float64(got.Y), 1e-4)
	require.InDelta(t, 0, float64(got.Z), 1e-4)
}

func TestQuaternion_Dot(t *testing.T) {
	a := Quaternion{X: 1, Y: 0, Z: 0, W: 0}
	b := Quaternion{X: 0, Y: 1, Z: 0, W: 0}
	require.Equal(t, float32(0), a.Dot(b))
	require.Equal(t, float32(1), a.Dot(a))
}
