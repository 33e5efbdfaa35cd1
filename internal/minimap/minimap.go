package minimap

import (
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/Blue-Cardigan/inside-parliament/internal/movement"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

const (
	DefaultWidth  = 48
	DefaultHeight = 20

	cellEmpty  = '.'
	cellSolid  = '#'
	cellBench  = '='
	cellViewer = '@'
)

// Bounds is the world x/z rectangle the map covers.
type Bounds struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

func (b Bounds) Empty() bool {
	return !(b.MaxX > b.MinX && b.MaxZ > b.MinZ)
}

// BoundsOf returns the x/z extent of the solids, or an empty Bounds.
func BoundsOf(solids []physics.Solid) Bounds {
	valid := lo.Filter(solids, func(s physics.Solid, _ int) bool { return s.Box.Valid() })
	if len(valid) == 0 {
		return Bounds{}
	}
	return lo.Reduce(valid, func(b Bounds, s physics.Solid, _ int) Bounds {
		return Bounds{
			MinX: math.Min(b.MinX, s.Box.Min.X()),
			MinZ: math.Min(b.MinZ, s.Box.Min.Z()),
			MaxX: math.Max(b.MaxX, s.Box.Max.X()),
			MaxZ: math.Max(b.MaxZ, s.Box.Max.Z()),
		}
	}, Bounds{MinX: math.Inf(1), MinZ: math.Inf(1), MaxX: math.Inf(-1), MaxZ: math.Inf(-1)})
}

// Project maps a world point onto a w×h grid. +X runs right and +Z runs up
// the map. Points outside the bounds report false.
func Project(p mgl64.Vec3, bounds Bounds, w, h int) (col, row int, ok bool) {
	if bounds.Empty() || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	if p.X() < bounds.MinX || p.X() > bounds.MaxX || p.Z() < bounds.MinZ || p.Z() > bounds.MaxZ {
		return 0, 0, false
	}
	u := (p.X() - bounds.MinX) / (bounds.MaxX - bounds.MinX)
	v := (bounds.MaxZ - p.Z()) / (bounds.MaxZ - bounds.MinZ)
	col = min(int(u*float64(w)), w-1)
	row = min(int(v*float64(h)), h-1)
	return col, row, true
}

// Heading returns the arrow glyph for a yaw in degrees.
func Heading(yaw float64) rune {
	rad := yaw * math.Pi / 180.0
	dx := -math.Sin(rad)
	dz := math.Cos(rad)
	if math.Abs(dx) > math.Abs(dz) {
		if dx > 0 {
			return '>'
		}
		return '<'
	}
	if dz >= 0 {
		return '^'
	}
	return 'v'
}

// Render draws solids, avatars by party initial, and the viewer. In
// overview mode the viewer is drawn as '@' at the camera position.
func Render(pose movement.Pose, solids []physics.Solid, avatars []scene.Avatar, bounds Bounds, w, h int) []string {
	if bounds.Empty() || w <= 0 || h <= 0 {
		return nil
	}
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(string(cellEmpty), w))
	}

	for _, s := range solids {
		if !s.Box.Valid() || s.Kind == "" {
			continue
		}
		glyph := cellSolid
		if s.Kind == scene.KindBench {
			glyph = cellBench
		}
		fillBox(grid, s.Box, bounds, w, h, glyph)
	}

	for _, a := range avatars {
		if col, row, ok := Project(a.Position, bounds, w, h); ok {
			grid[row][col] = partyInitial(a.Party)
		}
	}

	if col, row, ok := Project(pose.Position, bounds, w, h); ok {
		glyph := Heading(pose.Yaw)
		if pose.Mode == movement.Overview {
			glyph = cellViewer
		}
		grid[row][col] = glyph
	}

	return lo.Map(grid, func(line []rune, _ int) string { return string(line) })
}

func fillBox(grid [][]rune, box physics.AABB, bounds Bounds, w, h int, glyph rune) {
	c0, r1, ok0 := Project(clampToBounds(box.Min, bounds), bounds, w, h)
	c1, r0, ok1 := Project(clampToBounds(box.Max, bounds), bounds, w, h)
	if !ok0 || !ok1 {
		return
	}
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			grid[r][c] = glyph
		}
	}
}

func clampToBounds(p mgl64.Vec3, b Bounds) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Max(b.MinX, math.Min(b.MaxX, p.X())),
		p.Y(),
		math.Max(b.MinZ, math.Min(b.MaxZ, p.Z())),
	}
}

func partyInitial(party string) rune {
	for _, r := range strings.TrimSpace(party) {
		return unicode.ToUpper(r)
	}
	return '?'
}

// Map keeps the latest committed pose and renders on demand.
type Map struct {
	mu     sync.Mutex
	pose   movement.Pose
	width  int
	height int
}

func New(width, height int) *Map {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Map{width: width, height: height}
}

func (m *Map) UpdatePose(p movement.Pose) {
	m.mu.Lock()
	m.pose = p
	m.mu.Unlock()
}

func (m *Map) Pose() movement.Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pose
}

func (m *Map) Render(solids []physics.Solid, avatars []scene.Avatar) []string {
	return Render(m.Pose(), solids, avatars, BoundsOf(solids), m.width, m.height)
}
