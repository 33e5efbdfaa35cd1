package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PhysicsState is the first-person body. Position is the eye point, so the
// feet sit StandingHeight below it. Velocity holds the horizontal X and Z
// components.
type PhysicsState struct {
	Position         mgl64.Vec3
	Velocity         mgl64.Vec2
	VerticalVelocity float64
	Radius           float64
	StandingHeight   float64
	Grounded         bool
	Ascending        bool
	CanJump          bool
}

type InputState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Jump     bool
	Yaw      float64
}

type TickResult struct {
	Ground    GroundResult
	Collision CollisionResult
	Clamped   bool
}

// NewPhysicsState places a body at rest. Only the world floor is known here,
// so a body spawned above it starts unsupported and the first tick's ground
// probe decides whether it stands on a solid or falls.
func NewPhysicsState(pos mgl64.Vec3, params Params) PhysicsState {
	params = params.WithDefaults()
	state := PhysicsState{
		Position:       pos,
		Radius:         params.Radius,
		StandingHeight: params.StandingHeight,
	}
	if !EnforceFloor(&state) && state.Position.Y() <= state.StandingHeight {
		state.Grounded = true
		state.CanJump = true
	}
	return state
}

// PhysicsTick advances the body by dt: integrate, probe for ground, resolve
// against solids, apply the correction and finally clamp to the floor.
func PhysicsTick(state *PhysicsState, input InputState, dt float64, params Params, solids []Solid) TickResult {
	if state == nil {
		return TickResult{}
	}
	params = params.WithDefaults()
	if state.Radius <= 0 {
		state.Radius = params.Radius
	}
	if state.StandingHeight <= 0 {
		state.StandingHeight = params.StandingHeight
	}

	var result TickResult
	if dt > 0 {
		result.Ground = Integrate(state, input, dt, params, solids)
	}
	result.Collision = Resolve(state.Position, state.Radius, state.StandingHeight, solids)
	ApplyCorrection(state, result.Collision)
	result.Clamped = EnforceFloor(state)
	return result
}

// Integrate applies damping, input impulse, jump and gravity, then settles the
// vertical state against the ground probe.
func Integrate(state *PhysicsState, input InputState, dt float64, params Params, solids []Solid) GroundResult {
	if state == nil || dt <= 0 {
		return GroundResult{}
	}

	state.Velocity = state.Velocity.Mul(math.Exp(-params.Damping * dt))
	moveX, moveZ := desiredMoveVector(input)
	state.Velocity[0] += moveX * params.Acceleration * dt
	state.Velocity[1] += moveZ * params.Acceleration * dt
	zeroResidualVelocity(state)

	state.Position[0] += state.Velocity[0] * dt
	state.Position[2] += state.Velocity[1] * dt

	if input.Jump && state.CanJump {
		state.VerticalVelocity = JumpVelocity(params.Gravity, params.JumpHeight)
		state.Ascending = true
		state.Grounded = false
		state.CanJump = false
	}

	if state.Ascending {
		// Deliberately not the plain Euler step (y += v*dt, then v -= g*dt):
		// the exact constant-acceleration step keeps the sampled peak on the
		// analytic jump height instead of overshooting it.
		state.Position[1] += state.VerticalVelocity*dt - 0.5*params.Gravity*dt*dt
		state.VerticalVelocity -= params.Gravity * dt
	}

	ground := DetectGround(state.Position, state.StandingHeight, solids)
	switch {
	case state.Ascending && ground.Supported && state.VerticalVelocity <= 0:
		state.Position[1] = ground.SurfaceHeight + state.StandingHeight
		state.VerticalVelocity = 0
		state.Ascending = false
		state.Grounded = true
		state.CanJump = true
	case !state.Ascending && !ground.Supported:
		state.Ascending = true
		state.VerticalVelocity = 0
		state.Grounded = false
		state.CanJump = false
	case !state.Ascending:
		state.Grounded = true
	}

	EnforceFloor(state)
	return ground
}

// EnforceFloor clamps the body to the minimum legal height. It reports whether
// the clamp fired.
func EnforceFloor(state *PhysicsState) bool {
	if state == nil || state.Position.Y() >= state.StandingHeight {
		return false
	}
	state.Position[1] = state.StandingHeight
	state.VerticalVelocity = 0
	state.Ascending = false
	state.Grounded = true
	state.CanJump = true
	return true
}

func JumpVelocity(gravity, height float64) float64 {
	if gravity <= 0 || height <= 0 {
		return 0
	}
	return math.Sqrt(2 * gravity * height)
}

// desiredMoveVector returns the unit world-space XZ direction for the held
// keys. Yaw is in degrees with yaw 0 looking down +Z.
func desiredMoveVector(input InputState) (float64, float64) {
	var forward float64
	if input.Forward {
		forward += 1
	}
	if input.Backward {
		forward -= 1
	}

	var strafe float64
	if input.Right {
		strafe -= 1
	}
	if input.Left {
		strafe += 1
	}

	length := math.Sqrt(forward*forward + strafe*strafe)
	if length > 1 {
		forward /= length
		strafe /= length
	}

	yawRad := input.Yaw * math.Pi / 180.0
	worldX := forward*(-math.Sin(yawRad)) + strafe*math.Cos(yawRad)
	worldZ := forward*math.Cos(yawRad) + strafe*math.Sin(yawRad)

	return worldX, worldZ
}

func zeroResidualVelocity(state *PhysicsState) {
	if math.Abs(state.Velocity[0]) < ResidualSpeed {
		state.Velocity[0] = 0
	}
	if math.Abs(state.Velocity[1]) < ResidualSpeed {
		state.Velocity[1] = 0
	}
}
