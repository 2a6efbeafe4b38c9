package profile

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/onigiri-dev/onigiri/internal/layout"
)

// DefaultLayoutName is the layout every monitor starts with.
const DefaultLayoutName = "Default"

// MonitorLayouts holds the named layouts saved for one monitor and which
// of them is active. Each layout is the flat rect list produced by
// layout.Editor.ExportRects.
type MonitorLayouts struct {
	Current string                          `json:"current"`
	Layouts map[string][]layout.LabeledRect `json:"layouts"`
}

// migrateLayoutSlots accepts the three historical encodings of the
// layout_slots key: a plain rect list, a monitor to rect list map, and
// the current monitor to {current, layouts} map. Anything else resets
// to empty.
func migrateLayoutSlots(raw json.RawMessage) map[string]*MonitorLayouts {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]*MonitorLayouts{}
	}

	var list []layout.LabeledRect
	if err := json.Unmarshal(raw, &list); err == nil {
		return map[string]*MonitorLayouts{
			"default": {
				Current: DefaultLayoutName,
				Layouts: map[string][]layout.LabeledRect{DefaultLayoutName: list},
			},
		}
	}

	var perMonitor map[string][]layout.LabeledRect
	if err := json.Unmarshal(raw, &perMonitor); err == nil {
		out := make(map[string]*MonitorLayouts, len(perMonitor))
		for mon, rects := range perMonitor {
			out[mon] = &MonitorLayouts{
				Current: DefaultLayoutName,
				Layouts: map[string][]layout.LabeledRect{DefaultLayoutName: rects},
			}
		}
		return out
	}

	var current map[string]*MonitorLayouts
	if err := json.Unmarshal(raw, &current); err == nil {
		for _, ml := range current {
			if ml == nil || ml.Layouts == nil {
				return map[string]*MonitorLayouts{}
			}
		}
		return current
	}

	return map[string]*MonitorLayouts{}
}

func (p *Profile) monitorKey() string {
	if p.Monitor == "" {
		return "default"
	}
	return p.Monitor
}

// monitorLayouts returns the layout table for the current monitor. When
// create is set a missing entry is added to the profile, otherwise a
// detached empty table is returned.
func (p *Profile) monitorLayouts(create bool) *MonitorLayouts {
	if p.LayoutSlots == nil {
		p.LayoutSlots = map[string]*MonitorLayouts{}
	}
	mon := p.monitorKey()
	ml, ok := p.LayoutSlots[mon]
	if !ok || ml == nil {
		ml = &MonitorLayouts{Current: DefaultLayoutName, Layouts: map[string][]layout.LabeledRect{}}
		if create {
			p.LayoutSlots[mon] = ml
		}
		return ml
	}
	if ml.Layouts == nil {
		ml.Layouts = map[string][]layout.LabeledRect{}
	}
	if ml.Current == "" {
		ml.Current = DefaultLayoutName
	}
	return ml
}

// CurrentSlots returns the rect list of the active layout on the current
// monitor, seeding an empty Default layout when none exist yet.
func (p *Profile) CurrentSlots() []layout.LabeledRect {
	ml := p.monitorLayouts(true)
	if len(ml.Layouts) == 0 {
		ml.Layouts[DefaultLayoutName] = []layout.LabeledRect{}
		ml.Current = DefaultLayoutName
		return ml.Layouts[DefaultLayoutName]
	}
	if _, ok := ml.Layouts[ml.Current]; !ok {
		ml.Current = sortedLayoutNames(ml.Layouts)[0]
	}
	return ml.Layouts[ml.Current]
}

// SetSlots stores rects into the active layout on the current monitor.
func (p *Profile) SetSlots(rects []layout.LabeledRect) {
	ml := p.monitorLayouts(true)
	if rects == nil {
		rects = []layout.LabeledRect{}
	}
	ml.Layouts[ml.Current] = rects
}

// LayoutNames lists the layouts saved for the current monitor in sorted
// order, seeding Default when there are none.
func (p *Profile) LayoutNames() []string {
	ml := p.monitorLayouts(true)
	if len(ml.Layouts) == 0 {
		ml.Layouts[DefaultLayoutName] = []layout.LabeledRect{}
		ml.Current = DefaultLayoutName
	}
	return sortedLayoutNames(ml.Layouts)
}

// CurrentLayoutName returns the active layout name for the current
// monitor, falling back to the first saved layout when the recorded name
// no longer exists.
func (p *Profile) CurrentLayoutName() string {
	ml := p.monitorLayouts(true)
	if len(ml.Layouts) == 0 {
		ml.Layouts[DefaultLayoutName] = []layout.LabeledRect{}
		ml.Current = DefaultLayoutName
	} else if _, ok := ml.Layouts[ml.Current]; !ok {
		ml.Current = sortedLayoutNames(ml.Layouts)[0]
	}
	return ml.Current
}

// SetCurrentLayout switches the active layout for the current monitor.
// The name is not required to exist yet; the getters fall back to a
// saved layout if it never does.
func (p *Profile) SetCurrentLayout(name string) {
	ml := p.monitorLayouts(true)
	if len(ml.Layouts) == 0 {
		ml.Layouts[name] = []layout.LabeledRect{}
	}
	ml.Current = name
}

// CreateLayout adds an empty named layout on the current monitor and
// makes it active.
func (p *Profile) CreateLayout(name string) error {
	ml := p.monitorLayouts(true)
	if _, ok := ml.Layouts[name]; ok {
		return fmt.Errorf("layout %q already exists", name)
	}
	ml.Layouts[name] = []layout.LabeledRect{}
	ml.Current = name
	return nil
}

// DeleteLayout removes a named layout. When the active layout goes away
// the first remaining one takes over; deleting the last layout leaves a
// fresh empty Default.
func (p *Profile) DeleteLayout(name string) {
	ml := p.monitorLayouts(true)
	delete(ml.Layouts, name)

	if len(ml.Layouts) == 0 {
		ml.Layouts[DefaultLayoutName] = []layout.LabeledRect{}
		ml.Current = DefaultLayoutName
	} else if ml.Current == name {
		ml.Current = sortedLayoutNames(ml.Layouts)[0]
	}
}

// RenameLayout renames a saved layout and reports success. Renames to an
// empty name or onto an existing layout are rejected.
func (p *Profile) RenameLayout(oldName, newName string) bool {
	ml := p.monitorLayouts(true)
	rects, ok := ml.Layouts[oldName]
	if !ok || newName == "" {
		return false
	}
	if _, exists := ml.Layouts[newName]; exists {
		return false
	}

	delete(ml.Layouts, oldName)
	ml.Layouts[newName] = rects
	if ml.Current == oldName {
		ml.Current = newName
	}
	return true
}

func sortedLayoutNames(layouts map[string][]layout.LabeledRect) []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
