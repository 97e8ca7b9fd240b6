package theme

import "fmt"

// Default is the palette used when a session has no explicit choice or names
// an unknown theme.
const Default = "dark"

// Palette is the color token set consumed by the presentation layer.
type Palette struct {
	BgColor   string `json:"bg_color"`
	CardBg    string `json:"card_bg"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
	Warning   string `json:"warning"`
	Error     string `json:"error"`
	Text      string `json:"text"`
}

var palettes = map[string]Palette{
	"dark": {
		BgColor:   "#121212",
		CardBg:    "#1E1E1E",
		Primary:   "#003b7a",
		Secondary: "#BB86FC",
		Accent:    "#03DAC6",
		Warning:   "#FF9800",
		Error:     "#CF6679",
		Text:      "#FFFFFF",
	},
	"light": {
		BgColor:   "#F5F5F5",
		CardBg:    "#FFFFFF",
		Primary:   "#003b7a",
		Secondary: "#7C4DFF",
		Accent:    "#00BCD4",
		Warning:   "#FF9800",
		Error:     "#F44336",
		Text:      "#212121",
	},
}

// Get looks up a palette by name, falling back to the dark theme for unknown
// names.
func Get(name string) Palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[Default]
}

// Toggle flips between the two palettes.
func Toggle(current string) string {
	if current == "dark" {
		return "light"
	}
	return "dark"
}

// LoadCSS renders the stylesheet for a theme.
func LoadCSS(name string) string {
	p := Get(name)
	return fmt.Sprintf(`<style>
body { background-color: %s; color: %s; font-family: sans-serif; margin: 0; }
.main { padding: 20px; }
h1, h2, h3, h4, h5, h6 { color: %s; }
.card { border-radius: 10px; background-color: %s; padding: 1.5rem;
        box-shadow: 0 4px 6px rgba(0,0,0,0.1); margin-bottom: 1rem; border-left: 3px solid %s; }
.warning-card { border-left: 3px solid %s; }
.error-card { border-left: 3px solid %s; }
.modern-card { background-color: %s; border-radius: 12px; padding: 20px; margin-bottom: 20px;
               box-shadow: 0 4px 6px rgba(0,0,0,0.07); border-top: 4px solid %s; }
.modern-card.warning { border-top: 4px solid %s; }
.modern-card.error { border-top: 4px solid %s; }
.modern-card.secondary { border-top: 4px solid %s; }
.modern-card.accent { border-top: 4px solid %s; }
.metric-value { font-size: 32px; font-weight: bold; color: %s; }
.metric-label { font-size: 14px; color: %s; opacity: 0.7; }
.error-message { background-color: #CF6679; color: white; padding: 10px; border-radius: 5px; margin-bottom: 20px; }
.nav-category { font-size: 12px; font-weight: bold; text-transform: uppercase; opacity: 0.6; margin: 10px 15px 5px 15px; }
</style>`,
		p.BgColor, p.Text, p.Primary, p.CardBg, p.Primary,
		p.Warning, p.Error,
		p.CardBg, p.Primary, p.Warning, p.Error, p.Secondary, p.Accent,
		p.Primary, p.Text)
}
