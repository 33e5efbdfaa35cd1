package event

import "github.com/go-gl/mathgl/mgl64"

const (
	EventModeChanged    = "mode.changed"
	EventViewpoint      = "camera.viewpoint"
	EventAvatarInspect  = "avatar.inspected"
	EventSceneLoaded    = "scene.loaded"
	EventSceneLoadError = "scene.load_error"
)

type ModeChangedEvent struct {
	From string
	To   string
}

type ViewpointEvent struct {
	Name     string
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

type AvatarInspectEvent struct {
	AvatarID     string
	Name         string
	Party        string
	Constituency string
	Distance     float64
}

type SceneLoadedEvent struct {
	Version uint64
	Solids  int
	Avatars int
	Digest  uint64
}

type SceneLoadErrorEvent struct {
	Path string
	Err  error
}
