package interact

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/event"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

type SceneSource interface {
	Solids() []physics.Solid
	Avatars() []scene.Avatar
}

// Inspector picks the avatar under the view ray. Avatars hidden behind a
// wall or furniture are not pickable; benches do not occlude.
type Inspector struct {
	scene   SceneSource
	bus     *event.Bus
	maxDist float64
}

func NewInspector(source SceneSource, bus *event.Bus) *Inspector {
	return &Inspector{scene: source, bus: bus, maxDist: DefaultPickDist}
}

func (i *Inspector) SetMaxDistance(d float64) {
	if d > 0 {
		i.maxDist = d
	}
}

func (i *Inspector) Inspect(origin, dir mgl64.Vec3) (Hit, bool) {
	if i == nil || i.scene == nil {
		return Hit{}, false
	}
	hit, ok := Pick(origin, dir, i.scene.Avatars(), i.maxDist)
	if !ok {
		return Hit{}, false
	}
	if d, blocked := FirstSolidHit(origin, dir, occluders(i.scene.Solids()), hit.Distance); blocked && d < hit.Distance {
		slog.Debug("Inspect target occluded", "avatar", hit.Avatar.Name, "distance", hit.Distance, "blocked_at", d)
		return Hit{}, false
	}

	slog.Info("Avatar inspected", "id", hit.Avatar.ID, "name", hit.Avatar.Name, "distance", hit.Distance)
	i.bus.Publish(event.EventAvatarInspect, event.AvatarInspectEvent{
		AvatarID:     hit.Avatar.ID,
		Name:         hit.Avatar.Name,
		Party:        hit.Avatar.Party,
		Constituency: hit.Avatar.Constituency,
		Distance:     hit.Distance,
	})
	return hit, true
}

func occluders(solids []physics.Solid) []physics.Solid {
	out := make([]physics.Solid, 0, len(solids))
	for _, s := range solids {
		if s.Kind == scene.KindBench {
			continue
		}
		out = append(out, s)
	}
	return out
}
