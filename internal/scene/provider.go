package scene

import (
	"sync/atomic"

	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
)

// Snapshot is an immutable view of the loaded chamber. Readers must not
// modify the slices.
type Snapshot struct {
	Version uint64
	Digest  uint64
	Solids  []physics.Solid
	Avatars []Avatar
}

// Provider hands the tick loop a consistent chamber. Loaders build a complete
// snapshot and swap it in with one store; readers never see a partial list.
type Provider struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func NewProvider() *Provider {
	return &Provider{}
}

// Ready reports whether any snapshot has been published yet.
func (p *Provider) Ready() bool {
	return p != nil && p.current.Load() != nil
}

// Snapshot returns the latest snapshot, or an empty one before the first load.
func (p *Provider) Snapshot() *Snapshot {
	if p == nil {
		return &Snapshot{}
	}
	if s := p.current.Load(); s != nil {
		return s
	}
	return &Snapshot{}
}

func (p *Provider) Solids() []physics.Solid {
	return p.Snapshot().Solids
}

func (p *Provider) Avatars() []Avatar {
	return p.Snapshot().Avatars
}

// Publish copies solids and avatars into a new snapshot and makes it current.
// It returns the new version.
func (p *Provider) Publish(solids []physics.Solid, avatars []Avatar, digest uint64) uint64 {
	snap := &Snapshot{
		Version: p.version.Add(1),
		Digest:  digest,
		Solids:  append([]physics.Solid(nil), solids...),
		Avatars: append([]Avatar(nil), avatars...),
	}
	p.current.Store(snap)
	return snap.Version
}
