package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// AvatarHeadHeight is how far above a seat top an avatar's label anchor sits.
const AvatarHeadHeight = 0.9

type Avatar struct {
	ID           string
	Name         string
	Party        string
	Constituency string
	Side         string
	Seat         string
	Position     mgl64.Vec3
}

// AssignSeats places members on their side's benches, filling the front row
// first and each row along +Z. Crossbench members use the crossbench row.
// Members beyond a side's capacity stand at the bar, in a line across the
// floor in front of the crossbench.
func AssignSeats(layout Layout, members []Member) []Avatar {
	bySide := lo.GroupBy(members, func(m Member) string { return m.Side })

	avatars := make([]Avatar, 0, len(members))
	var overflow []Member
	for _, side := range []string{SideGovernment, SideOpposition} {
		seats := benchSeats(layout.Benches, side)
		placed, rest := seatMembers(bySide[side], seats)
		avatars = append(avatars, placed...)
		overflow = append(overflow, rest...)
	}

	placed, rest := seatMembers(bySide[SideCrossbench], crossbenchSeats(layout))
	avatars = append(avatars, placed...)
	overflow = append(overflow, rest...)

	return append(avatars, barPositions(layout, overflow)...)
}

type seat struct {
	name string
	pos  mgl64.Vec3
}

func seatMembers(members []Member, seats []seat) ([]Avatar, []Member) {
	n := min(len(members), len(seats))
	out := make([]Avatar, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, newAvatar(members[i], seats[i].name, seats[i].pos))
	}
	return out, members[n:]
}

func benchSeats(b BenchLayout, side string) []seat {
	perRow := seatsPerRow(b.Length, b.SeatWidth)
	if perRow == 0 {
		return nil
	}
	seats := make([]seat, 0, perRow*b.Rows)
	for row := 0; row < b.Rows; row++ {
		lower, upper := benchBox(b, side, row)
		x := (lower.X() + upper.X()) / 2
		for i := 0; i < perRow; i++ {
			z := -b.Length/2 + b.SeatWidth*(float64(i)+0.5)
			seats = append(seats, seat{
				name: fmt.Sprintf("%s-%d-%d", side, row, i),
				pos:  mgl64.Vec3{x, upper.Y() + AvatarHeadHeight, z},
			})
		}
	}
	return seats
}

func crossbenchSeats(layout Layout) []seat {
	cb := layout.Crossbench
	perRow := seatsPerRow(cb.Length, layout.Benches.SeatWidth)
	seats := make([]seat, 0, perRow)
	for i := 0; i < perRow; i++ {
		x := -cb.Length/2 + layout.Benches.SeatWidth*(float64(i)+0.5)
		seats = append(seats, seat{
			name: fmt.Sprintf("%s-%d", SideCrossbench, i),
			pos:  mgl64.Vec3{x, layout.Benches.SeatHeight + AvatarHeadHeight, cb.Z},
		})
	}
	return seats
}

func barPositions(layout Layout, members []Member) []Avatar {
	if len(members) == 0 {
		return nil
	}
	spacing := layout.Benches.SeatWidth
	if spacing <= 0 {
		spacing = 0.7
	}
	z := layout.Crossbench.Z + layout.Crossbench.Depth + 1
	out := make([]Avatar, 0, len(members))
	for i, m := range members {
		// Alternate either side of the center line: 0, +1, -1, +2, -2 ...
		step := float64((i + 1) / 2)
		if i > 0 && i%2 == 0 {
			step = -step
		}
		out = append(out, newAvatar(m, fmt.Sprintf("bar-%d", i), mgl64.Vec3{step * spacing, 1.7, z}))
	}
	return out
}

func seatsPerRow(length, width float64) int {
	if length <= 0 || width <= 0 {
		return 0
	}
	return int(math.Floor(length/width + 1e-9))
}

func newAvatar(m Member, seatName string, pos mgl64.Vec3) Avatar {
	return Avatar{
		ID:           m.ID,
		Name:         m.Name,
		Party:        m.Party,
		Constituency: m.Constituency,
		Side:         m.Side,
		Seat:         seatName,
		Position:     pos,
	}
}
