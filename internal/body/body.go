package body

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
)

const maxPitch = 89.0

type InputState = physics.InputState

// SolidSource yields the current chamber solids. It is read once per tick and
// may return an empty list while the scene is still loading.
type SolidSource interface {
	Solids() []physics.Solid
}

// Body is the first-person body and its view direction. It is owned by a
// single movement controller and is not safe for concurrent use.
type Body struct {
	physics physics.PhysicsState
	params  physics.Params
	solids  SolidSource
	yaw     float64
	pitch   float64
}

func New(spawn mgl64.Vec3, yaw float64, params physics.Params, solids SolidSource) *Body {
	params = params.WithDefaults()
	return &Body{
		physics: physics.NewPhysicsState(spawn, params),
		params:  params,
		solids:  solids,
		yaw:     normalizeYaw(yaw),
	}
}

// Tick runs one physics step with the body's own yaw applied to the input.
func (b *Body) Tick(input InputState, dt float64) (physics.TickResult, error) {
	if b == nil {
		return physics.TickResult{}, fmt.Errorf("body is nil")
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return physics.TickResult{}, fmt.Errorf("invalid tick interval %v", dt)
	}

	var solids []physics.Solid
	if b.solids != nil {
		solids = b.solids.Solids()
	}
	input.Yaw = b.yaw
	return physics.PhysicsTick(&b.physics, input, dt, b.params, solids), nil
}

func (b *Body) PhysicsState() physics.PhysicsState {
	if b == nil {
		return physics.PhysicsState{}
	}
	return b.physics
}

func (b *Body) Params() physics.Params {
	if b == nil {
		return physics.DefaultParams()
	}
	return b.params
}

// SetLocalPosition teleports the body, dropping all momentum. The floor clamp
// still applies.
func (b *Body) SetLocalPosition(pos mgl64.Vec3) {
	if b == nil {
		return
	}
	b.physics.Position = pos
	b.physics.Velocity = mgl64.Vec2{}
	b.physics.VerticalVelocity = 0
	b.physics.Ascending = false
	b.physics.CanJump = true
	b.physics.Grounded = true
	physics.EnforceFloor(&b.physics)
}

// Look turns the view by the given degrees. Pitch is clamped short of
// straight up or down.
func (b *Body) Look(dYaw, dPitch float64) {
	if b == nil {
		return
	}
	b.yaw = normalizeYaw(b.yaw + dYaw)
	b.pitch = clampPitch(b.pitch + dPitch)
}

func (b *Body) SetLook(yaw, pitch float64) {
	if b == nil {
		return
	}
	b.yaw = normalizeYaw(yaw)
	b.pitch = clampPitch(pitch)
}

func (b *Body) Yaw() float64 {
	if b == nil {
		return 0
	}
	return b.yaw
}

func (b *Body) Pitch() float64 {
	if b == nil {
		return 0
	}
	return b.pitch
}

// LookDir returns the unit view direction. Yaw 0 looks down +Z, positive
// pitch looks down.
func LookDir(yaw, pitch float64) mgl64.Vec3 {
	yawRad := yaw * math.Pi / 180.0
	pitchRad := pitch * math.Pi / 180.0
	x := -math.Sin(yawRad) * math.Cos(pitchRad)
	y := -math.Sin(pitchRad)
	z := math.Cos(yawRad) * math.Cos(pitchRad)
	return mgl64.Vec3{x, y, z}
}

// YawPitchToward returns the view angles that look from one point at another.
func YawPitchToward(from, to mgl64.Vec3) (float64, float64) {
	d := to.Sub(from)
	yaw := math.Atan2(-d.X(), d.Z()) * 180.0 / math.Pi
	horizontal := math.Sqrt(d.X()*d.X() + d.Z()*d.Z())
	pitch := -math.Atan2(d.Y(), horizontal) * 180.0 / math.Pi
	return normalizeYaw(yaw), clampPitch(pitch)
}

func normalizeYaw(yaw float64) float64 {
	for yaw <= -180 {
		yaw += 360
	}
	for yaw > 180 {
		yaw -= 360
	}
	return yaw
}

func clampPitch(pitch float64) float64 {
	if pitch < -maxPitch {
		return -maxPitch
	}
	if pitch > maxPitch {
		return maxPitch
	}
	return pitch
}
