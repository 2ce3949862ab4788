package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"tomgalvin.uk/thermalprint/internal/bitmap"
)

// basicfont advances every glyph by 7 pixels, which keeps widths predictable
var fixedFace = basicfont.Face7x13

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "hello", []string{"hello"}},
		{"trailing newline", "hello\n", []string{"hello"}},
		{"blank line kept", "a\n\nb", []string{"a", "", "b"}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"lone cr", "a\rb", []string{"a", "b"}},
		{"form feed", "a\fb", []string{"a", "b"}},
		{"unicode separator", "a\u2028b", []string{"a", "b"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitLines(tc.text))
		})
	}
}

func TestWrap(t *testing.T) {
	lines := Wrap("the quick brown fox jumps over the lazy dog", fixedFace, 70)
	assert.Equal(t, []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"}, lines)
}

func TestWrapCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, []string{"a b"}, Wrap("  a \t b  ", fixedFace, 100))
}

func TestWrapEmptyLine(t *testing.T) {
	assert.Equal(t, []string{""}, Wrap("   ", fixedFace, 100))
}

func TestWrapOverflowingWord(t *testing.T) {
	lines := Wrap("hi supercalifragilistic yo", fixedFace, 70)
	assert.Equal(t, []string{"hi", "supercalifragilistic", "yo"}, lines)
}

func TestWrappedLinesFitWidth(t *testing.T) {
	texts := []string{
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt",
		"a bb ccc dddd eeeee ffffff ggggggg hhhhhhhh iiiiiiiii jjjjjjjjjj kkkkkkkkkkk",
		"pneumonoultramicroscopicsilicovolcanoconiosis is long",
		"short\nlines\n\nwith breaks",
	}
	widths := []int{35, 70, 100, 384}

	for _, text := range texts {
		for _, width := range widths {
			for _, line := range WrapAll(text, fixedFace, width) {
				lineWidth := font.MeasureString(fixedFace, line).Ceil()
				if lineWidth > width {
					assert.Len(t, strings.Fields(line), 1,
						"only a single overlong word may exceed the width: %q at %d", line, width)
				}
			}
		}
	}
}

func TestRenderEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n", "\t"} {
		c := Render(text, fixedFace, 384)
		assert.True(t, c.IsEmpty(), "text %q", text)
		assert.Equal(t, 0, c.Count(bitmap.Black))
	}
}

func TestRenderTrimsToInk(t *testing.T) {
	c := Render("Hello", fixedFace, 384)
	require.False(t, c.IsEmpty())

	assert.LessOrEqual(t, c.Width(), 5*7)
	assert.Greater(t, c.Count(bitmap.Black), 0)

	// the bottom margin rows carry no ink
	for y := c.Height() - trimMargin; y < c.Height(); y++ {
		for x := range c.Width() {
			assert.Equal(t, bitmap.White, c.GetBit(x, y))
		}
	}

	// first row and column hold ink after trimming
	r, ok := c.ContentBounds()
	require.True(t, ok)
	assert.Equal(t, 0, r.Min.X)
	assert.Equal(t, 0, r.Min.Y)
	assert.Equal(t, c.Height()-trimMargin, r.Max.Y)
}

func TestRenderMoreLinesIsTaller(t *testing.T) {
	one := Render("one", fixedFace, 384)
	three := Render("one\ntwo\nthree", fixedFace, 384)
	assert.Greater(t, three.Height(), one.Height())
}

func TestRenderWidthNeverExceedsCanvas(t *testing.T) {
	c := Render(strings.Repeat("wide ", 200), DefaultFace(40), 384)
	assert.LessOrEqual(t, c.Width(), 384)
}

func TestLoadFaceFallsBack(t *testing.T) {
	face := LoadFace("/does/not/exist.ttf", 12)
	require.NotNil(t, face)

	expected := DefaultFace(12)
	assert.Equal(t,
		font.MeasureString(expected, "fallback"),
		font.MeasureString(face, "fallback"),
	)
}

func TestLoadFaceEmptyPath(t *testing.T) {
	assert.NotNil(t, LoadFace("", 0))
}

func TestQRCode(t *testing.T) {
	c, err := QRCode("https://example.com", 384)
	require.NoError(t, err)
	assert.LessOrEqual(t, c.Width(), 384)
	assert.Equal(t, c.Width(), c.Height())
	assert.Greater(t, c.Count(bitmap.Black), 0)
}

func TestQRCodeTooLong(t *testing.T) {
	_, err := QRCode(strings.Repeat("x", 5000), 384)
	assert.Error(t, err)
}
