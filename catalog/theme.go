package catalog

import "fmt"

// Theme is the persisted colour scheme preference of the user interface.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: unknown theme %q", ErrInvalidInput, s)
}

// LoadTheme reads the saved theme, defaulting to light. Unknown stored
// values fall back to light as well.
func LoadTheme(storage Storage) (Theme, error) {
	var raw string
	found, err := loadJSON(storage, CollectionTheme, &raw)
	if err != nil {
		return ThemeLight, fmt.Errorf("load theme: %w", err)
	}
	if !found || Theme(raw) != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SaveTheme persists t.
func SaveTheme(storage Storage, t Theme) error {
	data, err := json.Marshal(string(t))
	if err != nil {
		return err
	}
	if err := storage.Save(CollectionTheme, data); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
