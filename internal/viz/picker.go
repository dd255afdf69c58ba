package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// BuildFunc creates the live session for a preset.
type BuildFunc func(preset string) (Model, error)

var presetInfo = map[string]string{
	"practice":   "green track, light traffic",
	"qualifying": "afternoon heat, short runs",
	"race":       "full field, passive relaxation",
	"night":      "cooling surface under lights",
	"desert":     "dusty surface, extended rules",
	"timelapse":  "a day per minute",
}

// Picker lists presets and hands over to a live Model once one is chosen.
type Picker struct {
	presets []string
	cursor  int
	build   BuildFunc
	live    *Model
	err     error
}

func NewPicker(presets []string, build BuildFunc) Picker {
	return Picker{presets: presets, build: build}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.presets) == 0 {
			return p, nil
		}
		live, err := p.build(p.presets[p.cursor])
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live = &live
		return p, live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}
	var s strings.Builder
	s.WriteString(titleStyle.Render("TRACKEVO") + subtleStyle.Render("  choose a session") + "\n\n")
	for i, name := range p.presets {
		line := fmt.Sprintf("%-12s %s", name, presetInfo[name])
		if i == p.cursor {
			s.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + subtleStyle.Render(line) + "\n")
		}
	}
	if p.err != nil {
		s.WriteString("\n" + pausedStyle.Render(p.err.Error()) + "\n")
	}
	s.WriteString("\n" + hintStyle.Render("↑↓ select · enter start · q quit"))
	return s.String()
}

// Selected reports the preset under the cursor.
func (p Picker) Selected() string {
	if len(p.presets) == 0 {
		return ""
	}
	return p.presets[p.cursor]
}

// Live reports whether a session has started.
func (p Picker) Live() bool { return p.live != nil }
