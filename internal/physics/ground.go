package physics

import "github.com/go-gl/mathgl/mgl64"

type GroundResult struct {
	Supported     bool
	SurfaceHeight float64
}

// DetectGround probes straight down from the body's mid-height. The nearest
// solid top within standingHeight/2 + GroundProbeMargin below that point counts
// as ground. When nothing qualifies the implicit world floor supports any body
// at or below standing height, which also hides bodies that slipped through a
// solid.
func DetectGround(pos mgl64.Vec3, standingHeight float64, solids []Solid) GroundResult {
	originY := pos.Y() - standingHeight/2
	reach := standingHeight/2 + GroundProbeMargin

	found := false
	var nearest, surface float64
	for i := range solids {
		box := solids[i].Box
		if !box.Valid() {
			continue
		}
		if pos.X() < box.Min.X() || pos.X() > box.Max.X() ||
			pos.Z() < box.Min.Z() || pos.Z() > box.Max.Z() {
			continue
		}
		dist := originY - box.Max.Y()
		if dist < 0 || dist > reach {
			continue
		}
		if !found || dist < nearest {
			found = true
			nearest = dist
			surface = box.Max.Y()
		}
	}
	if found {
		return GroundResult{Supported: true, SurfaceHeight: surface}
	}

	if pos.Y() <= standingHeight {
		return GroundResult{Supported: true, SurfaceHeight: WorldFloorHeight}
	}
	return GroundResult{}
}
