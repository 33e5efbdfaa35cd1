package movement

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
)

type Viewpoint struct {
	Name     string
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// Viewpoints is the named overview cameras in the order they were added, so
// number keys map to a stable slot.
type Viewpoints struct {
	byName *orderedmap.OrderedMap[string, Viewpoint]
}

func NewViewpoints(vps ...Viewpoint) (*Viewpoints, error) {
	v := &Viewpoints{byName: orderedmap.NewOrderedMap[string, Viewpoint]()}
	for _, vp := range vps {
		if err := v.Add(vp); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Viewpoints) Add(vp Viewpoint) error {
	if vp.Name == "" {
		return fmt.Errorf("viewpoint name is empty")
	}
	if vp.Position == vp.Target {
		return fmt.Errorf("viewpoint %q: position equals target", vp.Name)
	}
	if _, exists := v.byName.Get(vp.Name); exists {
		return fmt.Errorf("viewpoint %q already exists", vp.Name)
	}
	v.byName.Set(vp.Name, vp)
	return nil
}

func (v *Viewpoints) Get(name string) (Viewpoint, bool) {
	if v == nil {
		return Viewpoint{}, false
	}
	return v.byName.Get(name)
}

// At returns the viewpoint in the given zero-based slot.
func (v *Viewpoints) At(index int) (Viewpoint, bool) {
	if v == nil || index < 0 || index >= v.byName.Len() {
		return Viewpoint{}, false
	}
	i := 0
	for el := v.byName.Front(); el != nil; el = el.Next() {
		if i == index {
			return el.Value, true
		}
		i++
	}
	return Viewpoint{}, false
}

func (v *Viewpoints) Names() []string {
	if v == nil {
		return nil
	}
	return v.byName.Keys()
}

func (v *Viewpoints) Len() int {
	if v == nil {
		return 0
	}
	return v.byName.Len()
}
