package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func NewAABB(min, max mgl64.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// BoxAround builds a box from a center point and per-axis half extents.
func BoxAround(center, half mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) HalfExtents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b AABB) Expand(r float64) AABB {
	grow := mgl64.Vec3{r, r, r}
	return AABB{Min: b.Min.Sub(grow), Max: b.Max.Add(grow)}
}

// Contains reports whether p lies inside or on the boundary of b.
func (b AABB) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Valid reports whether the box has finite, non-inverted corners.
func (b AABB) Valid() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Min[i]) || !finite(b.Max[i]) {
			return false
		}
		if b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Solid struct {
	ID   string
	Box  AABB
	Kind string
	Seat bool
}
