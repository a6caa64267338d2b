package ardrone

import "fmt"

// Mat4 is a row-major 4x4 matrix. Only the operations WorldEstimator and
// Quaternion.Matrix need are implemented; a general linear-algebra library
// is explicitly out of scope for this core.
type Mat4 [4][4]float32

// At returns m[i][j], panicking with a descriptive message on an
// out-of-range index rather than silently wrapping — an invariant
// violation, not a recoverable error.
func (m Mat4) At(i, j int) float32 {
	if i < 0 || i > 3 || j < 0 || j > 3 {
		panic(fmt.Sprintf("ardrone: Mat4 index (%d, %d) out of range", i, j))
	}
	return m[i][j]
}

func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[i][k] * o[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// MulVec3 treats v as (x, y, z, 0) and returns the rotated/transformed
// vector, dropping the homogeneous row/column.
func (m Mat4) MulVec3(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
