package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportStyle is the fixed set of styling keys recognised by the Excel and
// PDF exporters. Unknown keys in a style file are rejected.
type ExportStyle struct {
	Title             string  `yaml:"title"`
	FontFile          string  `yaml:"font_file"`
	BoldFontFile      string  `yaml:"bold_font_file"`
	FontSize          float64 `yaml:"font_size"`
	HeadingSize       float64 `yaml:"heading_size"`
	HeaderColor       string  `yaml:"header_color"`
	HeaderTextColor   string  `yaml:"header_text_color"`
	GroupHeaderColor  string  `yaml:"group_header_color"`
	AlternateRowColor string  `yaml:"alternate_row_color"`
	MarginLeft        float64 `yaml:"margin_left"`
	MarginRight       float64 `yaml:"margin_right"`
	MarginTop         float64 `yaml:"margin_top"`
}

// DefaultExportStyle mirrors the colours and sizes of the printed offers.
// Margins are in millimetres.
func DefaultExportStyle() ExportStyle {
	return ExportStyle{
		Title:             "Коммерческое предложение",
		FontSize:          10,
		HeadingSize:       12,
		HeaderColor:       "#283C5C",
		HeaderTextColor:   "#FFFFFF",
		GroupHeaderColor:  "#F0F0F0",
		AlternateRowColor: "#F8F8F8",
		MarginLeft:        20,
		MarginRight:       20,
		MarginTop:         20,
	}
}

// LoadExportStyle decodes a YAML style document over the defaults.
func LoadExportStyle(r io.Reader) (ExportStyle, error) {
	style := DefaultExportStyle()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&style); err != nil && !errors.Is(err, io.EOF) {
		return ExportStyle{}, fmt.Errorf("decode export style: %w", err)
	}
	if err := style.Validate(); err != nil {
		return ExportStyle{}, err
	}
	return style, nil
}

// LoadExportStyleFile reads a style file. An empty path yields the defaults.
func LoadExportStyleFile(path string) (ExportStyle, error) {
	if path == "" {
		return DefaultExportStyle(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return ExportStyle{}, fmt.Errorf("open export style %s: %w", path, err)
	}
	defer f.Close()
	return LoadExportStyle(f)
}

// Validate checks sizes and colour syntax.
func (s ExportStyle) Validate() error {
	if s.FontSize <= 0 || s.HeadingSize <= 0 {
		return fmt.Errorf("export style: font sizes must be positive")
	}
	if s.MarginLeft < 0 || s.MarginRight < 0 || s.MarginTop < 0 {
		return fmt.Errorf("export style: margins must not be negative")
	}
	for key, c := range map[string]string{
		"header_color":        s.HeaderColor,
		"header_text_color":   s.HeaderTextColor,
		"group_header_color":  s.GroupHeaderColor,
		"alternate_row_color": s.AlternateRowColor,
	} {
		if _, _, _, err := ParseHexColor(c); err != nil {
			return fmt.Errorf("export style: %s: %w", key, err)
		}
	}
	if s.BoldFontFile != "" && s.FontFile == "" {
		return fmt.Errorf("export style: bold_font_file requires font_file")
	}
	return nil
}

// ParseHexColor parses "#RRGGBB" into its components.
func ParseHexColor(s string) (r, g, b int, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", s)
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), nil
}
