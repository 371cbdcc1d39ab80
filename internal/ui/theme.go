package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"

	"relaychat/internal/utils"
)

// ThemeConfig represents a theme loaded from YAML
type ThemeConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Colors      map[string]any `yaml:"colors"`
}

type Theme struct {
	Name        string
	Description string
	colors      map[string]tcell.Color
}

var defaultColors = map[string]any{
	"background":       "#1e1e2e",
	"background-light": "#313244",
	"foreground":       "#cdd6f4",
	"foreground-dark":  "#6c7086",
	"primary":          "#89b4fa",
	"secondary":        "#f5c2e7",
	"border":           "#45475a",
	"border-focus":     "#89b4fa",
	"own-message":      "#a6e3a1",
	"system":           "#f9e2af",
	"red":              "#f38ba8",
	"modal-background": "#181825",
}

// DefaultTheme is used when no theme file is configured or found.
func DefaultTheme() *Theme {
	t, err := themeFromConfig(ThemeConfig{Name: "default", Colors: defaultColors})
	if err != nil {
		panic(err)
	}
	return t
}

func themeFromConfig(config ThemeConfig) (*Theme, error) {
	theme := &Theme{
		Name:        config.Name,
		Description: config.Description,
		colors:      make(map[string]tcell.Color),
	}
	for key, value := range defaultColors {
		color, err := parseColor(value)
		if err != nil {
			return nil, err
		}
		theme.colors[key] = color
	}
	for key, value := range config.Colors {
		color, err := parseColor(value)
		if err != nil {
			return nil, utils.ThemeError(fmt.Sprintf("failed to parse color '%s'", key)).WithDetails(err.Error())
		}
		theme.colors[key] = color
	}
	return theme, nil
}

// LoadTheme loads a theme from a YAML file. Colors it leaves out keep their
// default values.
func LoadTheme(themePath string) (*Theme, error) {
	if !utils.IsYAMLFile(themePath) {
		return nil, utils.ThemeError("theme file must be YAML").WithDetails(themePath)
	}
	data, err := os.ReadFile(themePath)
	if err != nil {
		return nil, utils.ThemeError("failed to read theme file").WithDetails(err.Error())
	}
	var config ThemeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, utils.ThemeError("failed to parse theme YAML").WithDetails(err.Error())
	}
	return themeFromConfig(config)
}

// LoadThemeFromDir looks for <themesDir>/<name>.yaml and falls back to the
// built-in theme.
func LoadThemeFromDir(themesDir, themeName string) (*Theme, error) {
	if themeName == "" || themeName == "default" {
		return DefaultTheme(), nil
	}
	path := filepath.Join(themesDir, themeName+".yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultTheme(), utils.ThemeError("theme not found, using default").WithDetails(path)
	}
	return LoadTheme(path)
}

// GetColor returns a color by name, with fallback to white
func (t *Theme) GetColor(name string) tcell.Color {
	if color, exists := t.colors[name]; exists {
		return color
	}
	return tcell.ColorWhite
}

func (t *Theme) HasColor(name string) bool {
	_, exists := t.colors[name]
	return exists
}

// Tag returns the tview color tag for a named color.
func (t *Theme) Tag(name string) string {
	return "[" + t.GetColor(name).CSS() + "]"
}

func parseColor(value any) (tcell.Color, error) {
	switch v := value.(type) {
	case string:
		return parseColorString(v)
	case int:
		return tcell.PaletteColor(v), nil
	case map[string]any:
		return parseColorMap(v)
	default:
		return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("unsupported color format: %T", value))
	}
}

func parseColorString(colorStr string) (tcell.Color, error) {
	colorStr = strings.TrimSpace(colorStr)
	switch {
	case strings.HasPrefix(colorStr, "#"):
		return parseHexColor(colorStr)
	case strings.HasPrefix(colorStr, "rgb(") && strings.HasSuffix(colorStr, ")"):
		return parseRGBFunction(colorStr)
	default:
		return parseNamedColor(colorStr)
	}
}

// parseHexColor accepts #RRGGBB and the #RGB shorthand.
func parseHexColor(hex string) (tcell.Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("invalid hex color format: %s", hex))
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("invalid hex color: %s", hex))
	}
	return tcell.NewHexColor(int32(v)), nil
}

// parseRGBFunction parses rgb(255, 255, 255)
func parseRGBFunction(rgbStr string) (tcell.Color, error) {
	rgbStr = strings.TrimSuffix(strings.TrimPrefix(rgbStr, "rgb("), ")")
	parts := strings.Split(rgbStr, ",")
	if len(parts) != 3 {
		return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("invalid RGB format: %s", rgbStr))
	}
	var rgb [3]int32
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("invalid RGB component: %s", p))
		}
		rgb[i] = int32(n)
	}
	return tcell.NewRGBColor(rgb[0], rgb[1], rgb[2]), nil
}

func parseColorMap(colorMap map[string]any) (tcell.Color, error) {
	var rgb [3]int32
	for i, key := range []string{"r", "g", "b"} {
		v, ok := colorMap[key].(int)
		if !ok {
			return tcell.ColorWhite, utils.ThemeError("rgb color map needs integer r, g and b values")
		}
		rgb[i] = int32(v)
	}
	return tcell.NewRGBColor(rgb[0], rgb[1], rgb[2]), nil
}

func parseNamedColor(name string) (tcell.Color, error) {
	if color, ok := tcell.ColorNames[strings.ToLower(name)]; ok {
		return color, nil
	}
	return tcell.ColorWhite, utils.ThemeError(fmt.Sprintf("unknown color name: %s", name))
}

func (t *Theme) FormColors() (bg, fieldBg, buttonBg, buttonText, fieldText tcell.Color) {
	return t.GetColor("background"),
		t.GetColor("background-light"),
		t.GetColor("primary"),
		t.GetColor("background"),
		t.GetColor("foreground")
}
