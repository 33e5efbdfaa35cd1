package minimap

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/movement"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

var testBounds = Bounds{MinX: -10, MinZ: -10, MaxX: 10, MaxZ: 10}

func TestProject(t *testing.T) {
	tests := []struct {
		name    string
		p       mgl64.Vec3
		wantCol int
		wantRow int
		wantOK  bool
	}{
		{name: "center", p: mgl64.Vec3{0, 0, 0}, wantCol: 10, wantRow: 5, wantOK: true},
		{name: "min corner is bottom left", p: mgl64.Vec3{-10, 0, -10}, wantCol: 0, wantRow: 9, wantOK: true},
		{name: "max corner is top right", p: mgl64.Vec3{10, 0, 10}, wantCol: 19, wantRow: 0, wantOK: true},
		{name: "outside", p: mgl64.Vec3{11, 0, 0}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, row, ok := Project(tt.p, testBounds, 20, 10)
			if ok != tt.wantOK {
				t.Fatalf("Project() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (col != tt.wantCol || row != tt.wantRow) {
				t.Fatalf("Project() = (%d,%d), want (%d,%d)", col, row, tt.wantCol, tt.wantRow)
			}
		})
	}

	if _, _, ok := Project(mgl64.Vec3{}, Bounds{}, 20, 10); ok {
		t.Fatalf("empty bounds should not project")
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		yaw  float64
		want rune
	}{
		{yaw: 0, want: '^'},
		{yaw: 180, want: 'v'},
		{yaw: -90, want: '>'},
		{yaw: 90, want: '<'},
		{yaw: 30, want: '^'},
	}
	for _, tt := range tests {
		if got := Heading(tt.yaw); got != tt.want {
			t.Fatalf("Heading(%.0f) = %q, want %q", tt.yaw, got, tt.want)
		}
	}
}

func TestBoundsOf(t *testing.T) {
	solids := []physics.Solid{
		{Box: physics.NewAABB(mgl64.Vec3{-3, 0, -2}, mgl64.Vec3{1, 1, 1})},
		{Box: physics.NewAABB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4, 1, 6})},
		{Box: physics.AABB{Min: mgl64.Vec3{50, 0, 50}, Max: mgl64.Vec3{0, 0, 0}}},
	}
	got := BoundsOf(solids)
	want := Bounds{MinX: -3, MinZ: -2, MaxX: 4, MaxZ: 6}
	if got != want {
		t.Fatalf("BoundsOf() = %+v, want %+v", got, want)
	}
	if !BoundsOf(nil).Empty() {
		t.Fatalf("BoundsOf(nil) should be empty")
	}
}

func TestRender(t *testing.T) {
	solids := []physics.Solid{
		{ID: "bench", Kind: scene.KindBench, Box: physics.NewAABB(mgl64.Vec3{6, 0, -4}, mgl64.Vec3{8, 0.5, 4})},
		{ID: "floor-marker", Box: physics.NewAABB(mgl64.Vec3{-10, 0, -10}, mgl64.Vec3{10, 0, 10})},
	}
	avatars := []scene.Avatar{
		{Name: "A", Party: "labour", Position: mgl64.Vec3{-5, 1.4, 0}},
		{Name: "B", Party: "", Position: mgl64.Vec3{-5, 1.4, 5}},
	}
	pose := movement.Pose{Position: mgl64.Vec3{0, 1.6, 0}, Yaw: -90, Mode: movement.FirstPerson}

	lines := Render(pose, solids, avatars, testBounds, 20, 10)
	if len(lines) != 10 {
		t.Fatalf("Render() rows = %d, want 10", len(lines))
	}
	for _, line := range lines {
		if len([]rune(line)) != 20 {
			t.Fatalf("row width = %d, want 20", len([]rune(line)))
		}
	}
	if lines[5][10] != '>' {
		t.Fatalf("viewer glyph = %q, want '>'\n%s", lines[5][10], strings.Join(lines, "\n"))
	}
	if lines[5][5] != 'L' {
		t.Fatalf("avatar glyph = %q, want 'L'", lines[5][5])
	}
	if lines[2][5] != '?' {
		t.Fatalf("partyless avatar glyph = %q, want '?'", lines[2][5])
	}
	if lines[5][16] != '=' {
		t.Fatalf("bench glyph = %q, want '='", lines[5][16])
	}
	if strings.Contains(strings.Join(lines, ""), "#") {
		t.Fatalf("untagged solids should not be drawn")
	}

	pose.Mode = movement.Overview
	lines = Render(pose, solids, avatars, testBounds, 20, 10)
	if lines[5][10] != '@' {
		t.Fatalf("overview viewer glyph = %q, want '@'", lines[5][10])
	}
}

func TestMapConsumesPose(t *testing.T) {
	m := New(0, 0)
	if m.width != DefaultWidth || m.height != DefaultHeight {
		t.Fatalf("New(0,0) size = %dx%d", m.width, m.height)
	}
	pose := movement.Pose{Position: mgl64.Vec3{1, 2, 3}, Yaw: 45}
	m.UpdatePose(pose)
	if m.Pose() != pose {
		t.Fatalf("Pose() = %+v, want %+v", m.Pose(), pose)
	}
	if lines := m.Render(nil, nil); lines != nil {
		t.Fatalf("Render() without solids = %v, want nil", lines)
	}
}
