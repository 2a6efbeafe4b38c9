package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/onigiri-dev/onigiri/internal/layout"
	"github.com/onigiri-dev/onigiri/internal/profile"
)

// editLayout reconstructs the active layout of a profile into an editor,
// runs fn against it and writes the exported rectangles back into the
// slot. All layout subcommands funnel through here so the undo history
// sees every edit.
func editLayout(profileName, label string, width, height float64, fn func(e *layout.Editor, p *profile.Profile) error) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	return env.mutate(label, func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}

		e := layout.NewEditor(width, height, env.userConfig.EditorOptions())
		e.LoadFromRects(p.CurrentSlots())

		if err := fn(e, p); err != nil {
			return err
		}
		p.SetSlots(e.ExportRects())
		return nil
	})
}

// resolveLeaf addresses a leaf by its label or by its index in the
// derivation order 'layout show' prints.
func resolveLeaf(e *layout.Editor, arg string) (layout.LeafRect, error) {
	leaves := e.Leaves()
	for _, lf := range leaves {
		if lf.Label != "" && lf.Label == arg {
			return lf, nil
		}
	}
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= len(leaves) {
		return layout.LeafRect{}, fmt.Errorf("no leaf %q: use an index 0..%d or a tile name", arg, len(leaves)-1)
	}
	return leaves[idx], nil
}

func resolveDivider(e *layout.Editor, arg string) (int, layout.Divider, error) {
	dividers := e.Dividers()
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 || idx >= len(dividers) {
		return 0, layout.Divider{}, fmt.Errorf("no divider %q: use an index 0..%d", arg, len(dividers)-1)
	}
	return idx, dividers[idx], nil
}

func runLayoutShow(profileName string, width, height float64, gap int) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}

	e := layout.NewEditor(width, height, env.userConfig.EditorOptions())
	e.LoadFromRects(p.CurrentSlots())

	fmt.Println()
	fmt.Println(titleStyle().Render(fmt.Sprintf("Layout '%s' of '%s'", p.CurrentLayoutName(), profileName)))
	fmt.Println()
	fmt.Println(renderLayoutPreview(e, 64, 18))
	fmt.Println()

	leaves := e.Leaves()
	rows := make([][]string, 0, len(leaves))
	for i, lf := range leaves {
		label := lf.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			label,
			fmt.Sprintf("%.0f,%.0f %.0fx%.0f", lf.Rect.X, lf.Rect.Y, lf.Rect.W, lf.Rect.H),
		})
	}
	printTable([]string{"Leaf", "Tile", "Geometry"}, rows)

	if dividers := e.Dividers(); len(dividers) > 0 {
		rows = rows[:0]
		for i, d := range dividers {
			pos := d.X1
			if d.Orientation == layout.Horizontal {
				pos = d.Y1
			}
			rows = append(rows, []string{
				strconv.Itoa(i),
				d.Orientation.String(),
				fmt.Sprintf("%.0f", pos),
			})
		}
		printTable([]string{"Divider", "Orientation", "Position"}, rows)
	}

	if gap < 0 {
		gap = p.TileGap
	}
	projected := e.ProjectGaps(float64(gap))
	if len(projected) == 0 {
		return nil
	}
	rows = rows[:0]
	for _, r := range projected {
		rows = append(rows, []string{
			r.Label,
			fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.W, r.H),
		})
	}
	fmt.Println(titleStyle().Render(fmt.Sprintf("Projected with %dpx gap", gap)))
	printTable([]string{"Tile", "Geometry"}, rows)
	return nil
}

// renderLayoutPreview draws the leaf rectangles onto a character canvas,
// scaled down from the layout bounds.
func renderLayoutPreview(e *layout.Editor, cols, rows int) string {
	bounds := e.Bounds()
	grid := make([][]rune, rows)
	for y := range grid {
		grid[y] = make([]rune, cols)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	scaleX := func(v float64) int {
		c := int(math.Round(v / bounds.W * float64(cols-1)))
		return min(max(c, 0), cols-1)
	}
	scaleY := func(v float64) int {
		r := int(math.Round(v / bounds.H * float64(rows-1)))
		return min(max(r, 0), rows-1)
	}

	for i, lf := range e.Leaves() {
		x0, x1 := scaleX(lf.Rect.X), scaleX(lf.Rect.Right())
		y0, y1 := scaleY(lf.Rect.Y), scaleY(lf.Rect.Bottom())

		for x := x0; x <= x1; x++ {
			grid[y0][x], grid[y1][x] = '─', '─'
		}
		for y := y0; y <= y1; y++ {
			grid[y][x0], grid[y][x1] = '│', '│'
		}
		grid[y0][x0], grid[y0][x1] = '┌', '┐'
		grid[y1][x0], grid[y1][x1] = '└', '┘'

		// Leaf index and label, centered-ish inside the box.
		tag := strconv.Itoa(i)
		if lf.Label != "" {
			tag += ":" + lf.Label
		}
		if room := x1 - x0 - 1; room > 0 && y1 > y0+1 {
			if len(tag) > room {
				tag = tag[:room]
			}
			y := (y0 + y1) / 2
			x := x0 + 1 + (room-len(tag))/2
			for j, r := range tag {
				grid[y][x+j] = r
			}
		}
	}

	lines := make([]string, rows)
	for y := range grid {
		lines[y] = string(grid[y])
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Join(lines, "\n"))
}

func runLayoutSplit(args []string, width, height float64, horizontal bool) error {
	profileName, leafArg := args[0], args[1]
	count := 2
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 2 {
			return fmt.Errorf("count must be an integer >= 2, got %q", args[2])
		}
		count = n
	}

	orientation := layout.Vertical
	if horizontal {
		orientation = layout.Horizontal
	}

	label := fmt.Sprintf("split leaf %s of %s into %d", leafArg, profileName, count)
	return editLayout(profileName, label, width, height, func(e *layout.Editor, p *profile.Profile) error {
		lf, err := resolveLeaf(e, leafArg)
		if err != nil {
			return err
		}
		if !e.SplitLeaf(lf.ID, count, orientation) {
			return fmt.Errorf("could not split leaf %q", leafArg)
		}
		fmt.Printf("Split leaf %s into %d %s part(s)\n", leafArg, count, orientation)
		return nil
	})
}

func runLayoutCombine(args []string, width, height float64) error {
	profileName, dividerArg := args[0], args[1]
	label := fmt.Sprintf("combine divider %s of %s", dividerArg, profileName)
	return editLayout(profileName, label, width, height, func(e *layout.Editor, p *profile.Profile) error {
		_, d, err := resolveDivider(e, dividerArg)
		if err != nil {
			return err
		}
		if !e.CombineSplit(d.Node) {
			return fmt.Errorf("divider %s does not separate two equal-sized regions", dividerArg)
		}
		fmt.Printf("Combined the regions around divider %s\n", dividerArg)
		return nil
	})
}

func runLayoutLabel(args []string, width, height float64, clear bool) error {
	profileName, leafArg := args[0], args[1]
	tileName := ""
	if len(args) > 2 {
		tileName = args[2]
	}
	if !clear && tileName == "" {
		return fmt.Errorf("name a tile, or pass --clear to remove the label")
	}
	if clear {
		tileName = ""
	}

	label := fmt.Sprintf("label leaf %s of %s", leafArg, profileName)
	return editLayout(profileName, label, width, height, func(e *layout.Editor, p *profile.Profile) error {
		if tileName != "" && p.FindTile(tileName) == nil {
			warnf("profile '%s' has no tile '%s'; the label will not apply until one exists", profileName, tileName)
		}
		// Labels are unique caller-side: a tile appears in one region.
		if tileName != "" {
			for _, lf := range e.Leaves() {
				if lf.Label == tileName {
					e.SetLeafLabel(lf.ID, "")
				}
			}
		}

		lf, err := resolveLeaf(e, leafArg)
		if err != nil {
			return err
		}
		e.SetLeafLabel(lf.ID, tileName)
		if tileName == "" {
			fmt.Printf("Cleared the label of leaf %s\n", leafArg)
		} else {
			fmt.Printf("Labeled leaf %s as '%s'\n", leafArg, tileName)
		}
		return nil
	})
}

func runLayoutNudge(args []string, width, height float64) error {
	profileName, dividerArg := args[0], args[1]
	delta, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("delta must be a number of pixels, got %q", args[2])
	}

	label := fmt.Sprintf("nudge divider %s of %s by %g", dividerArg, profileName, delta)
	return editLayout(profileName, label, width, height, func(e *layout.Editor, p *profile.Profile) error {
		idx, _, err := resolveDivider(e, dividerArg)
		if err != nil {
			return err
		}
		if !e.NudgeDivider(idx, delta) {
			fmt.Printf("Divider %s did not move: the regions are already at minimum size\n", dividerArg)
			return nil
		}
		fmt.Printf("Moved divider %s by %gpx\n", dividerArg, delta)
		return nil
	})
}

func runLayoutGrid(profileName string, width, height float64, columns, rows string) error {
	if (columns == "") == (rows == "") {
		return fmt.Errorf("pass exactly one of --columns or --rows")
	}

	tpl := layout.Template{Mode: layout.Columns}
	spec := columns
	if rows != "" {
		tpl.Mode = layout.Rows
		spec = rows
	}
	for _, part := range strings.Split(spec, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return fmt.Errorf("counts must be positive integers, got %q", part)
		}
		tpl.Counts = append(tpl.Counts, n)
	}

	label := fmt.Sprintf("grid layout %s for %s", spec, profileName)
	return editLayout(profileName, label, width, height, func(e *layout.Editor, p *profile.Profile) error {
		if !e.ApplyTemplate(tpl) {
			return fmt.Errorf("empty grid template")
		}
		fmt.Printf("Replaced the layout with a %d-entry grid\n", len(tpl.Counts))
		return nil
	})
}

func runLayoutClear(profileName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate("clear layout of "+profileName, func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		p.SetSlots(nil)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Cleared the active layout of '%s'\n", profileName)
	return nil
}

func runLayoutSlots(profileName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}

	current := p.CurrentLayoutName()
	fmt.Printf("Layouts for monitor '%s':\n", p.Monitor)
	for _, name := range p.LayoutNames() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}
	return nil
}

func runLayoutUse(profileName, layoutName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("switch %s to layout %s", profileName, layoutName), func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		found := false
		for _, name := range p.LayoutNames() {
			if name == layoutName {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("layout %q not found; see 'onigiri layout slots %s'", layoutName, profileName)
		}
		p.SetCurrentLayout(layoutName)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Switched '%s' to layout '%s'\n", profileName, layoutName)
	return nil
}

func runLayoutSaveSlot(profileName, layoutName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("save layout %s of %s", layoutName, profileName), func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		rects := p.CurrentSlots()
		if err := p.CreateLayout(layoutName); err != nil {
			return err
		}
		// The new layout starts as a copy of the one that was active and
		// becomes the active one itself.
		p.SetSlots(append([]layout.LabeledRect(nil), rects...))
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Saved the active layout as '%s'\n", layoutName)
	return nil
}

func runLayoutDeleteSlot(profileName, layoutName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("delete layout %s of %s", layoutName, profileName), func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		p.DeleteLayout(layoutName)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Deleted layout '%s'\n", layoutName)
	return nil
}

func runLayoutRenameSlot(profileName, oldName, newName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("rename layout %s to %s", oldName, newName), func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		if !p.RenameLayout(oldName, newName) {
			return fmt.Errorf("could not rename layout %q to %q", oldName, newName)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Renamed layout '%s' to '%s'\n", oldName, newName)
	return nil
}
