package movement

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/body"
)

type Mode int

const (
	FirstPerson Mode = iota
	Overview
)

func (m Mode) String() string {
	switch m {
	case FirstPerson:
		return "first_person"
	case Overview:
		return "overview"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Pose is the committed camera for one tick. Yaw and pitch are in degrees,
// yaw 0 looks down +Z and positive pitch looks down.
type Pose struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Mode     Mode
}

func (p Pose) Forward() mgl64.Vec3 {
	return body.LookDir(p.Yaw, p.Pitch)
}
