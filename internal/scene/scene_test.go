package scene

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/event"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
)

const testLayout = `floor:
  width: 20
  depth: 24
walls:
  height: 6
  thickness: 0.5
benches:
  rows: 2
  length: 3
  row_depth: 1
  row_rise: 0.5
  seat_height: 0.5
  seat_width: 1
  front_offset: 2
crossbench:
  z: -9
  length: 2
  depth: 1
furniture:
  - name: table
    center: [0, 0.5, 0]
    size: [1, 1, 4]
`

const testMembers = `- name: Ada Lovelace
  party: Labour
  constituency: Marylebone
  side: government
- name: Charles Babbage
  party: Conservative
  constituency: Finsbury
  side: Opposition
- name: "  "
  party: Nobody
- name: Mary Somerville
  party: Independent
  constituency: Burntisland
  side: independent
`

func findSolid(solids []physics.Solid, id string) (physics.Solid, bool) {
	for _, s := range solids {
		if s.ID == id {
			return s, true
		}
	}
	return physics.Solid{}, false
}

func TestParseLayout_OverridesDefaults(t *testing.T) {
	layout, err := ParseLayout([]byte("floor:\n  width: 40\n"))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	d := DefaultLayout()
	if layout.Floor.Width != 40 {
		t.Fatalf("Floor.Width = %v, want 40", layout.Floor.Width)
	}
	if layout.Floor.Depth != d.Floor.Depth || layout.Benches != d.Benches {
		t.Fatalf("unspecified fields should keep defaults: %+v", layout)
	}
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "floor: [1", "parse layout"},
		{"zero floor", "floor:\n  width: 0\n", "floor size"},
		{"negative rows", "benches:\n  rows: -1\n", "negative bench rows"},
		{"zero seat width", "benches:\n  seat_width: 0\n", "seat width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ParseLayout() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestBuildChamber(t *testing.T) {
	layout, err := ParseLayout([]byte(testLayout))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	solids := BuildChamber(layout)

	// 4 walls cut into 6 pieces each + 2 rows per side + crossbench + table
	if len(solids) != 24+4+1+1 {
		t.Fatalf("len(solids) = %d, want 30", len(solids))
	}
	for _, s := range solids {
		if !s.Box.Valid() {
			t.Fatalf("solid %q has invalid box %+v", s.ID, s.Box)
		}
	}

	gov, ok := findSolid(solids, "bench-government-1")
	if !ok {
		t.Fatalf("bench-government-1 missing")
	}
	if !gov.Seat || gov.Kind != KindBench {
		t.Fatalf("bench tags = %+v", gov)
	}
	if gov.Box.Min != (mgl64.Vec3{3, 0, -1.5}) || gov.Box.Max != (mgl64.Vec3{4, 1, 1.5}) {
		t.Fatalf("government row 1 box = %+v", gov.Box)
	}

	opp, ok := findSolid(solids, "bench-opposition-0")
	if !ok {
		t.Fatalf("bench-opposition-0 missing")
	}
	if opp.Box.Min.X() != -3 || opp.Box.Max.X() != -2 {
		t.Fatalf("opposition row 0 x range = [%v, %v], want [-3, -2]", opp.Box.Min.X(), opp.Box.Max.X())
	}

	table, ok := findSolid(solids, "table")
	if !ok || table.Seat || table.Kind != KindFurniture {
		t.Fatalf("table = %+v, ok=%t", table, ok)
	}
	if table.Box.Max.Y() != 1 {
		t.Fatalf("table top = %v, want 1", table.Box.Max.Y())
	}

	north, ok := findSolid(solids, "wall-north.0")
	if !ok || north.Box.Min.Z() != 12 || north.Box.Max.Y() != 6 {
		t.Fatalf("wall-north.0 = %+v", north)
	}
	if north.Box.Min.X() != -10.5 || north.Box.Max.X() != -7 {
		t.Fatalf("wall-north.0 x range = [%v, %v], want [-10.5, -7]", north.Box.Min.X(), north.Box.Max.X())
	}
	last, ok := findSolid(solids, "wall-north.5")
	if !ok || last.Box.Max.X() != 10.5 {
		t.Fatalf("wall-north.5 = %+v", last)
	}
}

func TestBuildChamber_SegmentsFitBroadPhase(t *testing.T) {
	solids := BuildChamber(DefaultLayout())
	for _, s := range solids {
		size := s.Box.Max.Sub(s.Box.Min)
		if math.Max(size.X(), size.Z()) > MaxSegmentLength+1e-9 {
			t.Fatalf("solid %q is %.2f x %.2f, longer than %.1f", s.ID, size.X(), size.Z(), MaxSegmentLength)
		}
	}

	// Pieces of one wall tile it without gaps.
	var covered float64
	for _, s := range solids {
		if strings.HasPrefix(s.ID, "wall-east.") {
			covered += s.Box.Max.Z() - s.Box.Min.Z()
		}
	}
	if math.Abs(covered-DefaultLayout().Floor.Depth) > 1e-9 {
		t.Fatalf("east wall pieces cover %.3f, want %.3f", covered, DefaultLayout().Floor.Depth)
	}
}

func TestBuildChamber_WallsHoldBodyInside(t *testing.T) {
	layout := DefaultLayout()
	solids := BuildChamber(layout)
	params := physics.DefaultParams()
	halfW := layout.Floor.Width / 2
	halfD := layout.Floor.Depth / 2

	tests := []struct {
		name  string
		yaw   float64
		start []mgl64.Vec3
	}{
		{name: "east", yaw: -90, start: []mgl64.Vec3{{10, 1.6, -13}, {10, 1.6, -6}, {10, 1.6, 0}, {10, 1.6, 6}, {10, 1.6, 10}, {10, 1.6, 13}}},
		{name: "west", yaw: 90, start: []mgl64.Vec3{{-10, 1.6, -13}, {-10, 1.6, -6}, {-10, 1.6, 0}, {-10, 1.6, 6}, {-10, 1.6, 10}, {-10, 1.6, 13}}},
		{name: "north", yaw: 0, start: []mgl64.Vec3{{-10, 1.6, 13}, {-4, 1.6, 13}, {3, 1.6, 13}, {10, 1.6, 13}}},
		{name: "south", yaw: 180, start: []mgl64.Vec3{{-10, 1.6, -13}, {-4, 1.6, -13}, {3, 1.6, -13}, {10, 1.6, -13}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, start := range tt.start {
				state := physics.NewPhysicsState(start, params)
				input := physics.InputState{Forward: true, Yaw: tt.yaw}
				for i := 0; i < 300; i++ {
					physics.PhysicsTick(&state, input, 1.0/60.0, params, solids)
				}
				p := state.Position
				if math.Abs(p.X()) >= halfW-params.Radius+0.05 || math.Abs(p.Z()) >= halfD-params.Radius+0.05 {
					t.Fatalf("start %v: body ended at %v, outside the walls", start, p)
				}
			}
		})
	}
}

func TestParseMembers(t *testing.T) {
	members, err := ParseMembers([]byte(testMembers))
	if err != nil {
		t.Fatalf("ParseMembers() error = %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("len(members) = %d, want 3 (blank name dropped)", len(members))
	}
	if members[1].Side != SideOpposition {
		t.Fatalf("side = %q, want normalized %q", members[1].Side, SideOpposition)
	}
	if members[2].Side != SideCrossbench {
		t.Fatalf("unknown side = %q, want %q", members[2].Side, SideCrossbench)
	}
	for _, m := range members {
		if m.ID == "" {
			t.Fatalf("member %q has no generated ID", m.Name)
		}
	}

	again, err := ParseMembers([]byte(testMembers))
	if err != nil {
		t.Fatalf("ParseMembers() error = %v", err)
	}
	if again[0].ID != members[0].ID {
		t.Fatalf("generated IDs differ across parses: %q vs %q", again[0].ID, members[0].ID)
	}
}

func TestParseMembers_DocumentAndJSON(t *testing.T) {
	doc := "members:\n  - name: A\n    id: m-1\n    side: government\n"
	members, err := ParseMembers([]byte(doc))
	if err != nil || len(members) != 1 || members[0].ID != "m-1" {
		t.Fatalf("document form: members=%+v err=%v", members, err)
	}

	jsonData := `[{"name": "B", "party": "Green", "side": "opposition"}]`
	members, err = ParseMembers([]byte(jsonData))
	if err != nil || len(members) != 1 || members[0].Party != "Green" {
		t.Fatalf("json form: members=%+v err=%v", members, err)
	}

	if _, err := ParseMembers([]byte("members: [oops")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAssignSeats(t *testing.T) {
	layout, err := ParseLayout([]byte(testLayout))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	var members []Member
	for i := 0; i < 8; i++ {
		members = append(members, Member{ID: string(rune('a' + i)), Name: "gov", Side: SideGovernment})
	}
	members = append(members,
		Member{ID: "o1", Name: "opp", Side: SideOpposition},
		Member{ID: "c1", Name: "cross", Side: SideCrossbench},
		Member{ID: "c2", Name: "cross", Side: SideCrossbench},
		Member{ID: "c3", Name: "cross", Side: SideCrossbench},
	)

	avatars := AssignSeats(layout, members)
	if len(avatars) != len(members) {
		t.Fatalf("len(avatars) = %d, want %d", len(avatars), len(members))
	}

	byID := make(map[string]Avatar)
	for _, a := range avatars {
		byID[a.ID] = a
	}

	// 3 seats per row, 2 rows: first seat is front row, lowest z.
	first := byID["a"]
	if first.Seat != "government-0-0" {
		t.Fatalf("first seat = %q", first.Seat)
	}
	if first.Position != (mgl64.Vec3{2.5, 0.5 + AvatarHeadHeight, -1}) {
		t.Fatalf("first position = %v", first.Position)
	}
	if byID["d"].Seat != "government-1-0" {
		t.Fatalf("fourth member seat = %q, want second row", byID["d"].Seat)
	}
	if byID["d"].Position.Y() != 1+AvatarHeadHeight {
		t.Fatalf("second row head height = %v", byID["d"].Position.Y())
	}
	if !strings.HasPrefix(byID["g"].Seat, "bar-") || !strings.HasPrefix(byID["h"].Seat, "bar-") {
		t.Fatalf("overflow government members should stand at the bar: %q %q", byID["g"].Seat, byID["h"].Seat)
	}
	if byID["o1"].Position.X() >= 0 {
		t.Fatalf("opposition member x = %v, want negative", byID["o1"].Position.X())
	}
	if byID["c1"].Seat != "crossbench-0" || byID["c2"].Seat != "crossbench-1" {
		t.Fatalf("crossbench seats = %q %q", byID["c1"].Seat, byID["c2"].Seat)
	}
	if !strings.HasPrefix(byID["c3"].Seat, "bar-") {
		t.Fatalf("crossbench overflow seat = %q", byID["c3"].Seat)
	}
	// 栏杆处依次排列: 0, +1, -1
	barX := []float64{byID["g"].Position.X(), byID["h"].Position.X(), byID["c3"].Position.X()}
	if barX[0] != 0 || barX[1] != 1 || barX[2] != -1 {
		t.Fatalf("bar x order = %v, want [0 1 -1]", barX)
	}

	seen := make(map[mgl64.Vec3]string)
	for _, a := range avatars {
		if other, dup := seen[a.Position]; dup {
			t.Fatalf("avatars %q and %q share position %v", a.ID, other, a.Position)
		}
		seen[a.Position] = a.ID
	}
}

func TestAssignSeats_Empty(t *testing.T) {
	if got := AssignSeats(DefaultLayout(), nil); len(got) != 0 {
		t.Fatalf("AssignSeats(nil) = %v, want empty", got)
	}
}

func TestProvider(t *testing.T) {
	p := NewProvider()
	if p.Ready() {
		t.Fatalf("new provider should not be ready")
	}
	if len(p.Solids()) != 0 || len(p.Avatars()) != 0 {
		t.Fatalf("unready provider should return empty lists")
	}

	solids := []physics.Solid{{ID: "a"}}
	v1 := p.Publish(solids, nil, 1)
	solids[0].ID = "mutated"
	if !p.Ready() || p.Solids()[0].ID != "a" {
		t.Fatalf("published snapshot must not alias caller slice: %+v", p.Solids())
	}

	held := p.Snapshot()
	v2 := p.Publish(nil, []Avatar{{ID: "x"}}, 2)
	if v2 != v1+1 {
		t.Fatalf("versions = %d then %d", v1, v2)
	}
	if len(held.Solids) != 1 || held.Version != v1 {
		t.Fatalf("held snapshot changed after publish: %+v", held)
	}
	if len(p.Avatars()) != 1 || len(p.Solids()) != 0 {
		t.Fatalf("current snapshot = %+v", p.Snapshot())
	}

	var nilProvider *Provider
	if nilProvider.Ready() || len(nilProvider.Solids()) != 0 {
		t.Fatalf("nil provider should behave as empty")
	}
}

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	layoutPath := filepath.Join(dir, "chamber.yaml")
	membersPath := filepath.Join(dir, "members.yaml")
	if err := os.WriteFile(layoutPath, []byte(testLayout), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	if err := os.WriteFile(membersPath, []byte(testMembers), 0o644); err != nil {
		t.Fatalf("write members: %v", err)
	}
	return layoutPath, membersPath
}

func TestLoader_LoadPublishesAndSkipsUnchanged(t *testing.T) {
	layoutPath, membersPath := writeFixtures(t)
	provider := NewProvider()
	bus := event.NewBus()
	var loaded []event.SceneLoadedEvent
	bus.Subscribe(event.EventSceneLoaded, func(raw any) {
		loaded = append(loaded, raw.(event.SceneLoadedEvent))
	})

	loader := NewLoader(layoutPath, membersPath, provider, bus)
	changed, err := loader.Load(context.Background())
	if err != nil || !changed {
		t.Fatalf("Load() = %t, %v", changed, err)
	}
	if !provider.Ready() || len(provider.Avatars()) != 3 || len(provider.Solids()) != 30 {
		t.Fatalf("snapshot = %d solids, %d avatars", len(provider.Solids()), len(provider.Avatars()))
	}

	changed, err = loader.Load(context.Background())
	if err != nil || changed {
		t.Fatalf("second Load() = %t, %v; want unchanged", changed, err)
	}

	if err := os.WriteFile(membersPath, []byte("- name: Solo\n  side: government\n"), 0o644); err != nil {
		t.Fatalf("rewrite members: %v", err)
	}
	changed, err = loader.Load(context.Background())
	if err != nil || !changed {
		t.Fatalf("third Load() = %t, %v", changed, err)
	}
	if len(provider.Avatars()) != 1 || provider.Snapshot().Version != 2 {
		t.Fatalf("reloaded snapshot = %+v", provider.Snapshot())
	}
	if len(loaded) != 2 {
		t.Fatalf("scene.loaded events = %d, want 2", len(loaded))
	}
}

func TestLoader_MissingFileLeavesProviderUnready(t *testing.T) {
	layoutPath, _ := writeFixtures(t)
	provider := NewProvider()
	bus := event.NewBus()
	var failures int
	bus.Subscribe(event.EventSceneLoadError, func(raw any) { failures++ })

	loader := NewLoader(layoutPath, filepath.Join(t.TempDir(), "missing.yaml"), provider, bus)
	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatalf("Load() error = nil, want missing members error")
	}
	if provider.Ready() {
		t.Fatalf("provider should stay unready after failed load")
	}
	if failures != 1 {
		t.Fatalf("scene.load_error events = %d, want 1", failures)
	}
}

func TestLoader_NoMembersPath(t *testing.T) {
	layoutPath, _ := writeFixtures(t)
	provider := NewProvider()
	loader := NewLoader(layoutPath, "", provider, nil)
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !provider.Ready() || len(provider.Avatars()) != 0 {
		t.Fatalf("expected chamber without avatars, got %+v", provider.Snapshot())
	}
}

func TestLoader_WatchReloadsOnWrite(t *testing.T) {
	layoutPath, membersPath := writeFixtures(t)
	provider := NewProvider()
	loader := NewLoader(layoutPath, membersPath, provider, nil)
	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// Rewrite until the watcher has picked up a change.
		_ = os.WriteFile(membersPath, []byte("- name: Late Arrival\n  side: opposition\n"), 0o644)
		time.Sleep(300 * time.Millisecond)
		if len(provider.Avatars()) == 1 {
			return
		}
	}
	t.Fatalf("watcher did not republish, avatars = %d", len(provider.Avatars()))
}
