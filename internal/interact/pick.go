package interact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

const (
	// HitRadius is the radius of the sphere around an avatar's label anchor
	// that a pick ray must cross.
	HitRadius       = 0.45
	DefaultPickDist = 25.0
)

type Hit struct {
	Avatar   scene.Avatar
	Distance float64
}

// Pick returns the nearest avatar whose hit sphere the ray crosses within
// maxDist. A zero direction never hits.
func Pick(origin, dir mgl64.Vec3, avatars []scene.Avatar, maxDist float64) (Hit, bool) {
	if nearlyZero(dir.Len()) || maxDist <= 0 {
		return Hit{}, false
	}
	dir = dir.Normalize()

	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, a := range avatars {
		t, ok := raySphere(origin, dir, a.Position, HitRadius)
		if !ok || t > maxDist || t >= best.Distance {
			continue
		}
		best = Hit{Avatar: a, Distance: t}
		found = true
	}
	return best, found
}

// FirstSolidHit returns the distance along the ray to the nearest solid it
// enters. A ray starting inside a solid hits it at distance 0.
func FirstSolidHit(origin, dir mgl64.Vec3, solids []physics.Solid, maxDist float64) (float64, bool) {
	if nearlyZero(dir.Len()) {
		return 0, false
	}
	dir = dir.Normalize()

	best := math.Inf(1)
	for i := range solids {
		if !solids[i].Box.Valid() {
			continue
		}
		t, ok := rayBox(origin, dir, solids[i].Box)
		if ok && t <= maxDist && t < best {
			best = t
		}
	}
	return best, !math.IsInf(best, 1)
}

func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := center.Sub(origin)
	along := oc.Dot(dir)
	perpSq := oc.Dot(oc) - along*along
	rSq := radius * radius
	if perpSq > rSq {
		return 0, false
	}
	half := math.Sqrt(rSq - perpSq)
	entry := along - half
	exit := along + half
	if exit < 0 {
		return 0, false
	}
	if entry < 0 {
		return 0, true
	}
	return entry, true
}

// rayBox is the slab test against an axis-aligned box.
func rayBox(origin, dir mgl64.Vec3, box physics.AABB) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if nearlyZero(dir[axis]) {
			if origin[axis] < box.Min[axis] || origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir[axis]
		t1 := (box.Min[axis] - origin[axis]) * inv
		t2 := (box.Max[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return 0, true
	}
	return tMin, true
}

func nearlyZero(v float64) bool {
	return math.Abs(v) < 1e-9
}
