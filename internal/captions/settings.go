package captions

import "strings"

// Settings is the per-request caption styling configuration. It is decoded
// once at the API boundary; zero-valued fields are filled from Default by
// WithDefaults so the render path never reasons about missing values.
type Settings struct {
	LineColor       string `json:"line_color"`
	WordColor       string `json:"word_color"`
	AllCaps         bool   `json:"all_caps"`
	MaxWordsPerLine int    `json:"max_words_per_line"`
	FontSize        int    `json:"font_size"`
	FontFamily      string `json:"font_family"`
	Bold            bool   `json:"bold"`
	Italic          bool   `json:"italic"`
	Underline       bool   `json:"underline"`
	Strikeout       bool   `json:"strikeout"`
	// OutlineWidth is a pointer so an explicit 0 (no outline) stays
	// distinguishable from an absent field, which gets the default.
	OutlineWidth *int `json:"outline_width"`
	// ShadowOffset may be negative for an up-left shadow.
	ShadowOffset int    `json:"shadow_offset"`
	Style        string `json:"style"`
	Position     string `json:"position"`
}

// Default returns the baseline caption settings.
func Default() Settings {
	return Settings{
		LineColor:       "white",
		WordColor:       "white",
		AllCaps:         false,
		MaxWordsPerLine: 7,
		FontSize:        40,
		FontFamily:      "Arial",
		OutlineWidth:    intPtr(1),
		ShadowOffset:    0,
		Style:           "highlight",
		Position:        "middle center",
	}
}

// WithDefaults fills unset fields from Default. Boolean flags default to
// false and need no filling.
func (s Settings) WithDefaults() Settings {
	defaults := Default()

	if strings.TrimSpace(s.LineColor) == "" {
		s.LineColor = defaults.LineColor
	}
	if strings.TrimSpace(s.WordColor) == "" {
		s.WordColor = defaults.WordColor
	}
	if s.MaxWordsPerLine <= 0 {
		s.MaxWordsPerLine = defaults.MaxWordsPerLine
	}
	if s.FontSize <= 0 {
		s.FontSize = defaults.FontSize
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = defaults.FontFamily
	}
	if s.OutlineWidth == nil {
		s.OutlineWidth = defaults.OutlineWidth
	}
	if strings.TrimSpace(s.Style) == "" {
		s.Style = defaults.Style
	}
	if strings.TrimSpace(s.Position) == "" {
		s.Position = defaults.Position
	}
	return s
}

func intPtr(v int) *int {
	return &v
}

// Anchor is the two-axis placement of a caption layer.
type Anchor struct {
	Horizontal string // left, center, right
	Vertical   string // top, center, bottom
}

var positions = map[string]Anchor{
	"top left":      {Horizontal: "left", Vertical: "top"},
	"top center":    {Horizontal: "center", Vertical: "top"},
	"top right":     {Horizontal: "right", Vertical: "top"},
	"middle left":   {Horizontal: "left", Vertical: "center"},
	"middle center": {Horizontal: "center", Vertical: "center"},
	"middle right":  {Horizontal: "right", Vertical: "center"},
	"bottom left":   {Horizontal: "left", Vertical: "bottom"},
	"bottom center": {Horizontal: "center", Vertical: "bottom"},
	"bottom right":  {Horizontal: "right", Vertical: "bottom"},
}

// ParsePosition maps one of the 9 compass position names to an Anchor.
// Unknown names fall back to the centered anchor.
func ParsePosition(position string) Anchor {
	if anchor, ok := positions[strings.ToLower(strings.TrimSpace(position))]; ok {
		return anchor
	}
	return Anchor{Horizontal: "center", Vertical: "center"}
}
