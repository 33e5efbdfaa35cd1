package scene

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
)

const (
	SideGovernment = "government"
	SideOpposition = "opposition"
	SideCrossbench = "crossbench"

	KindWall      = "wall"
	KindBench     = "bench"
	KindFurniture = "furniture"
)

type Layout struct {
	Floor      FloorLayout     `yaml:"floor"`
	Walls      WallLayout      `yaml:"walls"`
	Benches    BenchLayout     `yaml:"benches"`
	Crossbench CrossbenchRow   `yaml:"crossbench"`
	Furniture  []FurnitureSpec `yaml:"furniture"`
}

type FloorLayout struct {
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
}

type WallLayout struct {
	Height    float64 `yaml:"height"`
	Thickness float64 `yaml:"thickness"`
}

// BenchLayout describes the stepped rows facing each other across the floor.
// Government rows sit on +X, opposition rows on -X.
type BenchLayout struct {
	Rows        int     `yaml:"rows"`
	Length      float64 `yaml:"length"`
	RowDepth    float64 `yaml:"row_depth"`
	RowRise     float64 `yaml:"row_rise"`
	SeatHeight  float64 `yaml:"seat_height"`
	SeatWidth   float64 `yaml:"seat_width"`
	FrontOffset float64 `yaml:"front_offset"`
}

type CrossbenchRow struct {
	Z      float64 `yaml:"z"`
	Length float64 `yaml:"length"`
	Depth  float64 `yaml:"depth"`
}

type FurnitureSpec struct {
	Name   string     `yaml:"name"`
	Center [3]float64 `yaml:"center"`
	Size   [3]float64 `yaml:"size"`
}

func DefaultLayout() Layout {
	return Layout{
		Floor: FloorLayout{Width: 24, Depth: 30},
		Walls: WallLayout{Height: 8, Thickness: 0.5},
		Benches: BenchLayout{
			Rows:        5,
			Length:      18,
			RowDepth:    1.2,
			RowRise:     0.4,
			SeatHeight:  0.45,
			SeatWidth:   0.7,
			FrontOffset: 3,
		},
		Crossbench: CrossbenchRow{Z: -11, Length: 8, Depth: 1},
		Furniture: []FurnitureSpec{
			{Name: "table", Center: [3]float64{0, 0.45, 0}, Size: [3]float64{1.6, 0.9, 6}},
			{Name: "speaker-chair", Center: [3]float64{0, 1.2, 12.5}, Size: [3]float64{1.4, 2.4, 1.2}},
		},
	}
}

func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes a layout over DefaultLayout, so a file only needs the
// fields it changes.
func ParseLayout(data []byte) (Layout, error) {
	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	if layout.Floor.Width <= 0 || layout.Floor.Depth <= 0 {
		return Layout{}, fmt.Errorf("parse layout: floor size must be positive")
	}
	if layout.Benches.Rows < 0 {
		return Layout{}, fmt.Errorf("parse layout: negative bench rows")
	}
	if layout.Benches.Rows > 0 && layout.Benches.SeatWidth <= 0 {
		return Layout{}, fmt.Errorf("parse layout: seat width must be positive")
	}
	return layout, nil
}

// MaxSegmentLength bounds the horizontal length of any chamber solid. The
// collision broad phase measures from box centers, so long walls and bench
// rows are cut into pieces whose centers stay within reach of every point on
// their faces.
const MaxSegmentLength = 4.0

// BuildChamber turns a layout into the static solids the body collides with.
func BuildChamber(layout Layout) []physics.Solid {
	var solids []physics.Solid

	w := layout.Floor.Width / 2
	d := layout.Floor.Depth / 2
	h := layout.Walls.Height
	t := layout.Walls.Thickness
	if h > 0 && t > 0 {
		solids = appendSegments(solids, "wall-north", KindWall, mgl64.Vec3{-w - t, 0, d}, mgl64.Vec3{w + t, h, d + t}, false)
		solids = appendSegments(solids, "wall-south", KindWall, mgl64.Vec3{-w - t, 0, -d - t}, mgl64.Vec3{w + t, h, -d}, false)
		solids = appendSegments(solids, "wall-east", KindWall, mgl64.Vec3{w, 0, -d}, mgl64.Vec3{w + t, h, d}, false)
		solids = appendSegments(solids, "wall-west", KindWall, mgl64.Vec3{-w - t, 0, -d}, mgl64.Vec3{-w, h, d}, false)
	}

	for _, side := range []string{SideGovernment, SideOpposition} {
		for row := 0; row < layout.Benches.Rows; row++ {
			lower, upper := benchBox(layout.Benches, side, row)
			name := fmt.Sprintf("bench-%s-%d", side, row)
			solids = appendSegments(solids, name, KindBench, lower, upper, true)
		}
	}

	if cb := layout.Crossbench; cb.Length > 0 && cb.Depth > 0 {
		top := layout.Benches.SeatHeight
		solids = appendSegments(solids, "bench-crossbench", KindBench,
			mgl64.Vec3{-cb.Length / 2, 0, cb.Z - cb.Depth/2},
			mgl64.Vec3{cb.Length / 2, top, cb.Z + cb.Depth/2},
			true,
		)
	}

	for i, f := range layout.Furniture {
		center := mgl64.Vec3(f.Center)
		half := mgl64.Vec3(f.Size).Mul(0.5)
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("furniture-%d", i)
		}
		solids = appendSegments(solids, name, KindFurniture, center.Sub(half), center.Add(half), false)
	}
	return solids
}

// appendSegments cuts a box into equal pieces along its longer horizontal
// axis, none longer than MaxSegmentLength. A box that already fits keeps its
// name; pieces are named name.0, name.1, ...
func appendSegments(solids []physics.Solid, name, kind string, lower, upper mgl64.Vec3, seat bool) []physics.Solid {
	axis := 0
	if upper.Z()-lower.Z() > upper.X()-lower.X() {
		axis = 2
	}
	length := upper[axis] - lower[axis]
	n := int(math.Ceil(length/MaxSegmentLength - 1e-9))
	if n <= 1 {
		return append(solids, newSolid(name, kind, lower, upper, seat))
	}

	step := length / float64(n)
	for i := 0; i < n; i++ {
		segLower, segUpper := lower, upper
		segLower[axis] = lower[axis] + step*float64(i)
		if i < n-1 {
			segUpper[axis] = lower[axis] + step*float64(i+1)
		}
		solids = append(solids, newSolid(fmt.Sprintf("%s.%d", name, i), kind, segLower, segUpper, seat))
	}
	return solids
}

// benchBox returns the bounds of one stepped row. Rows rise and move outward
// from the floor's center line.
func benchBox(b BenchLayout, side string, row int) (mgl64.Vec3, mgl64.Vec3) {
	inner := b.FrontOffset + float64(row)*b.RowDepth
	outer := inner + b.RowDepth
	top := b.SeatHeight + float64(row)*b.RowRise
	if side == SideOpposition {
		inner, outer = -outer, -inner
	}
	return mgl64.Vec3{inner, 0, -b.Length / 2}, mgl64.Vec3{outer, top, b.Length / 2}
}

func newSolid(name, kind string, lower, upper mgl64.Vec3, seat bool) physics.Solid {
	return physics.Solid{
		ID:   name,
		Box:  physics.NewAABB(lower, upper),
		Kind: kind,
		Seat: seat,
	}
}
