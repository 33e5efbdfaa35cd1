package physics

const (
	Gravity             = 30.0
	JumpHeight          = 2.0
	HorizontalDamping   = 10.0
	MoveAcceleration    = 20.0
	BodyRadius          = 0.3
	StandingHeight      = 1.6
	BroadPhaseCutoff    = 5.0
	GroundProbeMargin   = 0.1
	CorrectionEpsilon   = 0.01
	WorldFloorHeight    = 0.0
	WorldFloorBoundary  = -0.1
	ResidualSpeed       = 1e-4
	CollisionTolerance  = 1e-9
	DefaultTickInterval = 1.0 / 60.0
)

// Params carries the tunables of a single body. Zero fields fall back to the
// package constants via WithDefaults.
type Params struct {
	Gravity        float64
	JumpHeight     float64
	Damping        float64
	Acceleration   float64
	Radius         float64
	StandingHeight float64
}

func DefaultParams() Params {
	return Params{
		Gravity:        Gravity,
		JumpHeight:     JumpHeight,
		Damping:        HorizontalDamping,
		Acceleration:   MoveAcceleration,
		Radius:         BodyRadius,
		StandingHeight: StandingHeight,
	}
}

func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Gravity <= 0 {
		p.Gravity = d.Gravity
	}
	if p.JumpHeight <= 0 {
		p.JumpHeight = d.JumpHeight
	}
	if p.Damping <= 0 {
		p.Damping = d.Damping
	}
	if p.Acceleration <= 0 {
		p.Acceleration = d.Acceleration
	}
	if p.Radius <= 0 {
		p.Radius = d.Radius
	}
	if p.StandingHeight <= 0 {
		p.StandingHeight = d.StandingHeight
	}
	return p
}
