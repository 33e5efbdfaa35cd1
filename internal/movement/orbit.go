package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/body"
)

const (
	OrbitDamping         = 8.0
	MinOrbitDistance     = 2.0
	MaxOrbitDistance     = 60.0
	DefaultOrbitDistance = 8.0
	maxOrbitPitch        = 89.0
)

// Orbit is the overview camera. It circles a target point at a distance and
// eases towards the goal angles and distance set by Rotate and Zoom.
type Orbit struct {
	target   mgl64.Vec3
	yaw      float64
	pitch    float64
	distance float64

	goalYaw      float64
	goalPitch    float64
	goalDistance float64

	enabled bool
}

func NewOrbit() *Orbit {
	return &Orbit{
		distance:     DefaultOrbitDistance,
		goalDistance: DefaultOrbitDistance,
	}
}

// LookAt places the camera at position looking at target, with no easing.
func (o *Orbit) LookAt(position, target mgl64.Vec3) {
	yaw, pitch := body.YawPitchToward(position, target)
	distance := clampDistance(target.Sub(position).Len())

	o.target = target
	o.yaw, o.goalYaw = yaw, yaw
	o.pitch, o.goalPitch = pitch, pitch
	o.distance, o.goalDistance = distance, distance
}

func (o *Orbit) Rotate(dYaw, dPitch float64) {
	o.goalYaw = normalizeAngle(o.goalYaw + dYaw)
	o.goalPitch = clampOrbitPitch(o.goalPitch + dPitch)
}

// Zoom scales the goal distance. Factors below 1 move the camera closer.
func (o *Orbit) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	o.goalDistance = clampDistance(o.goalDistance * factor)
}

// Update eases the camera towards its goal. It does nothing while disabled.
func (o *Orbit) Update(dt float64) {
	if !o.enabled || dt <= 0 {
		return
	}
	alpha := 1 - math.Exp(-OrbitDamping*dt)
	o.yaw = normalizeAngle(o.yaw + signedAngleDelta(o.yaw, o.goalYaw)*alpha)
	o.pitch += (o.goalPitch - o.pitch) * alpha
	o.distance += (o.goalDistance - o.distance) * alpha
}

func (o *Orbit) Enable()       { o.enabled = true }
func (o *Orbit) Disable()      { o.enabled = false }
func (o *Orbit) Enabled() bool { return o.enabled }

func (o *Orbit) Target() mgl64.Vec3 { return o.target }

func (o *Orbit) Distance() float64 { return o.distance }

func (o *Orbit) Position() mgl64.Vec3 {
	return o.target.Sub(body.LookDir(o.yaw, o.pitch).Mul(o.distance))
}

func (o *Orbit) Pose() Pose {
	return Pose{
		Position: o.Position(),
		Yaw:      o.yaw,
		Pitch:    o.pitch,
		Mode:     Overview,
	}
}

func clampDistance(d float64) float64 {
	if math.IsNaN(d) || d < MinOrbitDistance {
		return MinOrbitDistance
	}
	if d > MaxOrbitDistance {
		return MaxOrbitDistance
	}
	return d
}

func clampOrbitPitch(pitch float64) float64 {
	if pitch < -maxOrbitPitch {
		return -maxOrbitPitch
	}
	if pitch > maxOrbitPitch {
		return maxOrbitPitch
	}
	return pitch
}

func signedAngleDelta(from, to float64) float64 {
	return normalizeAngle(to - from)
}

func normalizeAngle(v float64) float64 {
	for v <= -180 {
		v += 360
	}
	for v > 180 {
		v -= 360
	}
	return v
}
