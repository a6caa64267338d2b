package ardrone

import "math"

// Quaternion is a Hamilton quaternion (x, y, z, w) used to rotate the
// body-frame velocity into the world frame. See worldestimate.go.
type Quaternion struct {
	X, Y, Z, W float32
}

// NewQuaternionFromEuler builds a quaternion from Euler angles given in
// radians, using the half-angle sin/cos products from the original
// UCAPA Quaternion::setFromEulerAngles. The result is normalized.
func NewQuaternionFromEuler(x, y, z float32) Quaternion {
	cx, sx := math.Cos(float64(x)*0.5), math.Sin(float64(x)*0.5)
	cy, sy := math.Cos(float64(y)*0.5), math.Sin(float64(y)*0.5)
	cz, sz := math.Cos(float64(z)*0.5), math.Sin(float64(z)*0.5)

	cycz := cy * cz
	sycz := sy * cz
	cysz := cy * sz
	sysz := sy * sz

	q := Quaternion{
		X: float32(sx*cycz - cx*sysz),
		Y: float32(cx*sycz + sx*cysz),
		Z: float32(cx*cysz - sx*sycz),
		W: float32(cx*cycz + sx*sysz),
	}
	return q.Normalized()
}

func (q Quaternion) Normalized() Quaternion {
	n := q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
	if n == 0 {
		return q
	}
	inv := float32(1.0 / math.Sqrt(float64(n)))
	return q.Scale(inv)
}

func (q Quaternion) Scale(s float32) Quaternion {
	return Quaternion{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

// Mul computes the Hamilton product q*o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: o.W*q.W - o.X*q.X - o.Y*q.Y - o.Z*q.Z,
		X: o.W*q.X + o.X*q.W + q.Y*o.Z - q.Z*o.Y,
		Y: o.W*q.Y + o.Y*q.W + q.Z*o.X - q.X*o.Z,
		Z: o.W*q.Z + o.Z*q.W + q.X*o.Y - q.Y*o.X,
	}
}

func (q Quaternion) Dot(o Quaternion) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Matrix returns the 4x4 rotation matrix this quaternion represents. This
// rotates world->body; WorldEstimator uses the transpose for body->world.
func (q Quaternion) Matrix() Mat4 {
	var m Mat4
	x, y, z, w := q.X, q.Y, q.Z, q.W

	m[0][0] = 1 - 2*y*y - 2*z*z
	m[1][0] = 2*x*y + 2*z*w
	m[2][0] = 2*x*z - 2*y*w
	m[3][0] = 0

	m[0][1] = 2*x*y - 2*z*w
	m[1][1] = 1 - 2*x*x - 2*z*z
	m[2][1] = 2*z*y + 2*x*w
	m[3][1] = 0

	m[0][2] = 2*x*z + 2*y*w
	m[1][2] = 2*z*y - 2*x*w
	m[2][2] = 1 - 2*x*x - 2*y*y
	m[3][2] = 0

	m[0][3] = 0
	m[1][3] = 0
	m[2][3] = 0
	m[3][3] = 1

	return m
}
