package movement

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/body"
	"github.com/Blue-Cardigan/inside-parliament/internal/event"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

type AvatarSource interface {
	Avatars() []scene.Avatar
}

// PoseConsumer receives the committed pose once per tick.
type PoseConsumer interface {
	UpdatePose(Pose)
}

// Controller owns the body and the camera mode. Every method must be called
// from the tick goroutine.
type Controller struct {
	body       *body.Body
	orbit      *Orbit
	viewpoints *Viewpoints
	avatars    AvatarSource
	bus        *event.Bus
	consumers  []PoseConsumer

	mode     Mode
	active   bool
	pose     Pose
	lastTick physics.TickResult
	ticks    uint64
}

func NewController(b *body.Body, orbit *Orbit, viewpoints *Viewpoints, avatars AvatarSource, bus *event.Bus) *Controller {
	if orbit == nil {
		orbit = NewOrbit()
	}
	c := &Controller{
		body:       b,
		orbit:      orbit,
		viewpoints: viewpoints,
		avatars:    avatars,
		bus:        bus,
		mode:       FirstPerson,
	}
	c.pose = c.bodyPose()
	return c
}

func (c *Controller) AddConsumer(consumer PoseConsumer) {
	if consumer == nil {
		return
	}
	c.consumers = append(c.consumers, consumer)
	consumer.UpdatePose(c.pose)
}

// Tick advances one frame. In first-person mode the body only moves while
// look control is active. In overview mode only the orbit camera updates.
func (c *Controller) Tick(input body.InputState, dt float64) (Pose, error) {
	if c == nil {
		return Pose{}, fmt.Errorf("controller is nil")
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return c.pose, fmt.Errorf("invalid tick interval %v", dt)
	}

	switch c.mode {
	case FirstPerson:
		if c.active {
			res, err := c.body.Tick(input, dt)
			if err != nil {
				return c.pose, fmt.Errorf("body tick: %w", err)
			}
			c.lastTick = res
		}
		c.pose = c.bodyPose()
	case Overview:
		c.orbit.Update(dt)
		c.pose = c.orbit.Pose()
	}
	c.ticks++
	c.notify()
	return c.pose, nil
}

// SetMode switches camera mode. It reports whether the mode changed;
// re-entering the current mode is a no-op.
func (c *Controller) SetMode(mode Mode) bool {
	if mode == c.mode {
		return false
	}
	from := c.mode
	switch mode {
	case Overview:
		c.active = false
		eye := c.body.PhysicsState().Position
		forward := body.LookDir(c.body.Yaw(), c.body.Pitch())
		c.orbit.LookAt(eye, eye.Add(forward.Mul(DefaultOrbitDistance)))
		c.orbit.Enable()
		c.mode = Overview
		c.pose = c.orbit.Pose()
	case FirstPerson:
		c.orbit.Disable()
		c.mode = FirstPerson
		c.pose = c.bodyPose()
	default:
		return false
	}

	slog.Info("Camera mode changed", "from", from.String(), "to", mode.String())
	c.bus.Publish(event.EventModeChanged, event.ModeChangedEvent{From: from.String(), To: mode.String()})
	c.notify()
	return true
}

func (c *Controller) ToggleMode() Mode {
	if c.mode == FirstPerson {
		c.SetMode(Overview)
	} else {
		c.SetMode(FirstPerson)
	}
	return c.mode
}

// SelectViewpoint enters overview mode and snaps the orbit camera to the
// named viewpoint. An unknown name leaves everything unchanged.
func (c *Controller) SelectViewpoint(name string) error {
	vp, ok := c.viewpoints.Get(name)
	if !ok {
		return fmt.Errorf("unknown viewpoint %q", name)
	}
	c.snapTo(vp)
	return nil
}

// SelectViewpointAt is SelectViewpoint by zero-based slot.
func (c *Controller) SelectViewpointAt(index int) (Viewpoint, error) {
	vp, ok := c.viewpoints.At(index)
	if !ok {
		return Viewpoint{}, fmt.Errorf("no viewpoint in slot %d", index+1)
	}
	c.snapTo(vp)
	return vp, nil
}

func (c *Controller) snapTo(vp Viewpoint) {
	c.SetMode(Overview)
	c.orbit.LookAt(vp.Position, vp.Target)
	c.pose = c.orbit.Pose()
	c.bus.Publish(event.EventViewpoint, event.ViewpointEvent{
		Name:     vp.Name,
		Position: vp.Position,
		Target:   vp.Target,
	})
	c.notify()
}

// Activate grabs look control. It only has an effect in first-person mode.
func (c *Controller) Activate() bool {
	if c.mode != FirstPerson {
		return false
	}
	c.active = true
	return true
}

func (c *Controller) Deactivate() {
	c.active = false
}

// Look turns the body while look control is active, or rotates the orbit
// camera in overview mode.
func (c *Controller) Look(dYaw, dPitch float64) {
	switch c.mode {
	case FirstPerson:
		if !c.active {
			return
		}
		c.body.Look(dYaw, dPitch)
		c.pose = c.bodyPose()
	case Overview:
		c.orbit.Rotate(dYaw, dPitch)
	}
}

func (c *Controller) Zoom(factor float64) {
	if c.mode == Overview {
		c.orbit.Zoom(factor)
	}
}

// LookAt turns the body to face a point. It works whether or not look
// control is active.
func (c *Controller) LookAt(target mgl64.Vec3) {
	eye := c.body.PhysicsState().Position
	if eye == target {
		return
	}
	yaw, pitch := body.YawPitchToward(eye, target)
	c.body.SetLook(yaw, pitch)
	if c.mode == FirstPerson {
		c.pose = c.bodyPose()
	}
}

// Teleport moves the body. The camera follows only in first-person mode.
func (c *Controller) Teleport(pos mgl64.Vec3) {
	c.body.SetLocalPosition(pos)
	if c.mode == FirstPerson {
		c.pose = c.bodyPose()
	}
}

func (c *Controller) Mode() Mode   { return c.mode }
func (c *Controller) Active() bool { return c.active }
func (c *Controller) Pose() Pose   { return c.pose }

// Eye is the body's eye point and view, independent of camera mode.
func (c *Controller) Eye() Pose {
	return c.bodyPose()
}

func (c *Controller) BodyState() physics.PhysicsState {
	return c.body.PhysicsState()
}

func (c *Controller) LastTick() physics.TickResult { return c.lastTick }

func (c *Controller) Ticks() uint64 { return c.ticks }

func (c *Controller) Viewpoints() *Viewpoints { return c.viewpoints }

// Avatars returns the avatars of the current scene snapshot.
func (c *Controller) Avatars() []scene.Avatar {
	if c.avatars == nil {
		return nil
	}
	return c.avatars.Avatars()
}

func (c *Controller) bodyPose() Pose {
	return Pose{
		Position: c.body.PhysicsState().Position,
		Yaw:      c.body.Yaw(),
		Pitch:    c.body.Pitch(),
		Mode:     FirstPerson,
	}
}

func (c *Controller) notify() {
	for _, consumer := range c.consumers {
		consumer.UpdatePose(c.pose)
	}
}
