package enum

// Toggle returns the opposite theme. Light flips to dark, anything else
// (including the zero value) flips to light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Label returns the toggle control text for the currently displayed theme.
func (t Theme) Label() string {
	if t == ThemeLight {
		return "Mode: Light"
	}
	return "Mode: Dark"
}
