package config

// UIConfig holds terminal UI configuration.
type UIConfig struct {
	// Theme selects the lipgloss palette: auto, light or dark.
	Theme string `yaml:"theme"`

	// WordWrap is the glamour render width for Output/Console panes (0 = no wrap).
	WordWrap int `yaml:"word_wrap"`

	// Markdown renders panes through glamour instead of plain text.
	Markdown bool `yaml:"markdown"`
}

// IsDark resolves the theme. detected is the terminal's own answer for "auto".
func (c UIConfig) IsDark(detected bool) bool {
	switch c.Theme {
	case "light":
		return false
	case "dark":
		return true
	default:
		return detected
	}
}
