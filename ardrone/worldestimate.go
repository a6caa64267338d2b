package ardrone

import "math"

// integrateWorldLocked integrates local velocity through the current
// orientation into world-frame velocity and position (dead reckoning).
// Must be called with d.state.mu held; only invoked from handleDemo when
// computeWorldData is true (spec.md §4.4).
func (d *TelemetryDecoder) integrateWorldLocked() {
	rot := d.state.rotationDeg
	rot.X -= d.state.startingRotation.X
	rotRad := rot.Scale(float32(math.Pi) / 180.0)

	// Euler order (z, x, y) to match the wire axes (spec.md §4.4).
	q := NewQuaternionFromEuler(rotRad.Z, rotRad.X, rotRad.Y)
	rotation := q.Matrix()
	// The quaternion matrix rotates world->body; dead reckoning needs the
	// inverse, which for an orthonormal matrix is the transpose.
	worldToBody := rotation.Transpose()

	worldVel := worldToBody.MulVec3(d.state.localVelocity)
	d.state.worldVelocity = worldVel

	dt := d.state.deltaTime
	d.state.worldPosition.X += worldVel.X * dt
	d.state.worldPosition.Y += worldVel.Y * dt
	d.state.worldPosition.Z += worldVel.Z * dt
}
