package viz

import "github.com/charmbracelet/lipgloss"

// Palette maps a normalised value onto a three-stop colour ramp.
type Palette struct {
	Name string
	Low  lipgloss.Color
	Mid  lipgloss.Color
	High lipgloss.Color
}

var (
	PaletteGrip = Palette{
		Name: "grip",
		Low:  lipgloss.Color("#ff3030"),
		Mid:  lipgloss.Color("#ffd000"),
		High: lipgloss.Color("#00e070"),
	}

	PaletteRubber = Palette{
		Name: "rubber",
		Low:  lipgloss.Color("#8a8a8a"),
		Mid:  lipgloss.Color("#4a4a4a"),
		High: lipgloss.Color("#101010"),
	}

	PaletteMarbles = Palette{
		Name: "marbles",
		Low:  lipgloss.Color("#303030"),
		Mid:  lipgloss.Color("#7a5a3a"),
		High: lipgloss.Color("#e0a060"),
	}

	PaletteDust = Palette{
		Name: "dust",
		Low:  lipgloss.Color("#404040"),
		Mid:  lipgloss.Color("#a08060"),
		High: lipgloss.Color("#f0d8a0"),
	}

	PaletteTemperature = Palette{
		Name: "temperature",
		Low:  lipgloss.Color("#2060ff"),
		Mid:  lipgloss.Color("#f0f0f0"),
		High: lipgloss.Color("#ff2020"),
	}

	Palettes = []Palette{
		PaletteGrip,
		PaletteRubber,
		PaletteMarbles,
		PaletteDust,
		PaletteTemperature,
	}
)

// PaletteFor returns the palette of a visualization mode, or the grip
// palette for unknown modes.
func PaletteFor(mode string) Palette {
	for _, p := range Palettes {
		if p.Name == mode {
			return p
		}
	}
	return PaletteGrip
}

// Color returns the ramp colour at t in [0,1].
func (p Palette) Color(t float64) lipgloss.Color {
	t = clampUnit(t)
	lo, mid, hi := parseHex(string(p.Low)), parseHex(string(p.Mid)), parseHex(string(p.High))
	if t < 0.5 {
		return lipgloss.Color(lerp(lo, mid, t*2).hex())
	}
	return lipgloss.Color(lerp(mid, hi, (t-0.5)*2).hex())
}
