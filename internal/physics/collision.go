package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type CollisionResult struct {
	Colliding   bool
	Normal      mgl64.Vec3
	Penetration float64
	Solid       *Solid
}

var up = mgl64.Vec3{0, 1, 0}

// Resolve tests the eye point pos of a body with the given radius and standing
// height against the world floor and then against solids. Only the contact with
// the smallest penetration is reported; simultaneous contacts are not merged.
func Resolve(pos mgl64.Vec3, radius, standingHeight float64, solids []Solid) CollisionResult {
	lower := pos.Y() - standingHeight
	if lower <= WorldFloorBoundary {
		return CollisionResult{
			Colliding:   true,
			Normal:      up,
			Penetration: WorldFloorHeight - lower,
		}
	}

	best := CollisionResult{}
	for i := range solids {
		s := solids[i]
		if !s.Box.Valid() {
			continue
		}
		// Broad phase measures from the box center only, so a large box whose
		// center sits past the cutoff is never tested even if it reaches pos.
		if s.Box.Center().Sub(pos).Len() > BroadPhaseCutoff {
			continue
		}
		normal, depth, ok := penetrate(pos, s.Box.Expand(radius))
		if !ok {
			continue
		}
		if best.Colliding && depth >= best.Penetration {
			continue
		}
		best = CollisionResult{
			Colliding:   true,
			Normal:      normal,
			Penetration: depth,
			Solid:       &s,
		}
	}
	return best
}

// penetrate returns the separation along the least-penetrated axis of box for
// a contained point: the axis whose center offset is largest relative to its
// half extent.
func penetrate(pos mgl64.Vec3, box AABB) (mgl64.Vec3, float64, bool) {
	if !box.Contains(pos) {
		return mgl64.Vec3{}, 0, false
	}
	center := box.Center()
	half := box.HalfExtents()

	axis := -1
	var ratio float64
	for i := 0; i < 3; i++ {
		r := 1.0
		if half[i] > CollisionTolerance {
			r = (pos[i] - center[i]) / half[i]
		}
		if axis < 0 || math.Abs(r) > math.Abs(ratio) {
			axis = i
			ratio = r
		}
	}

	var normal mgl64.Vec3
	normal[axis] = 1
	if pos[axis]-center[axis] < 0 {
		normal[axis] = -1
	}
	depth := half[axis] * (1 - math.Abs(ratio))
	if depth < 0 {
		depth = 0
	}
	return normal, depth, true
}

// ApplyCorrection pushes the body out along the collision normal and cancels
// the velocity component on the normal's axis.
func ApplyCorrection(state *PhysicsState, hit CollisionResult) {
	if state == nil || !hit.Colliding {
		return
	}
	state.Position = state.Position.Add(hit.Normal.Mul(hit.Penetration + CorrectionEpsilon))
	if hit.Normal.X() != 0 {
		state.Velocity[0] = 0
	}
	if hit.Normal.Z() != 0 {
		state.Velocity[1] = 0
	}
	if hit.Normal.Y() != 0 {
		state.VerticalVelocity = 0
	}
}
