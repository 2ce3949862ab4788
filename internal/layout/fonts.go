package layout

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// Point size used for printed text when none is configured.
const DefaultFontSize = 40

// Loads the TrueType/OpenType font at path. An empty path, or a font that
// can't be read or parsed, falls back to the built-in Go Mono face; this
// never fails.
func LoadFace(path string, size float64) font.Face {
	if size <= 0 {
		size = DefaultFontSize
	}
	if path != "" {
		face, err := loadFaceFromFile(path, size)
		if err == nil {
			return face
		}
		slog.Warn("Couldn't load font, using built-in default",
			"path", path,
			"error", err,
		)
	}
	return DefaultFace(size)
}

// The built-in Go Mono face at the given size.
func DefaultFace(size float64) font.Face {
	face, err := parseFace(gomono.TTF, size)
	if err != nil {
		slog.Error("Couldn't parse built-in font", "error", err)
		return basicfont.Face7x13
	}
	return face
}

func loadFaceFromFile(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read font file:\n%w", err)
	}
	return parseFace(data, size)
}

func parseFace(data []byte, size float64) (font.Face, error) {
	parsedFont, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Couldn't parse font:\n%w", err)
	}

	fontFace, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("Couldn't create font face:\n%w", err)
	}

	return fontFace, nil
}
