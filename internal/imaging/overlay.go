package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// DefaultOverlayColor is used when no outline color is given or it cannot
// be parsed.
const DefaultOverlayColor = "#00FF00"

// DrawQuad renders corners on a copy of r: the quadrilateral outline in
// lineHex, a filled marker per corner and the corner's index (0 = top-left,
// clockwise) next to it.
//
// Parameters:
//   - r: Image the corners were detected on.
//   - corners: Document corners in canonical order.
//   - lineHex: Outline color as "#RRGGBB". Invalid values fall back to
//     DefaultOverlayColor.
//
// Marker colors are spaced evenly around the HSV hue circle so each corner
// is distinguishable.
func DrawQuad(r *Raster, corners geometry.Quad, lineHex string) *image.NRGBA {
	canvas := imaging.Clone(r.ToImage())

	lineColor, err := colorful.Hex(lineHex)
	if err != nil {
		lineColor, _ = colorful.Hex(DefaultOverlayColor)
	}
	outline := toNRGBA(lineColor)

	thickness := 1 + (r.Width+r.Height)/500
	for i := 0; i < 4; i++ {
		drawLine(canvas, corners[i], corners[(i+1)%4], outline, thickness)
	}

	radius := 3 + thickness*2
	labelFG := color.RGBA{255, 255, 255, 255}
	labelBG := color.RGBA{0, 0, 0, 180}
	for i, p := range corners {
		marker := toNRGBA(colorful.Hsv(float64(i)*90, 0.9, 1))
		fillCircle(canvas, p, radius, marker)
		drawLabel(canvas, int(p.X)+radius+2, int(p.Y)+radius+2, strconv.Itoa(i), labelFG, labelBG)
	}
	return canvas
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawLine stamps a thickness x thickness square at unit steps from a to b.
func drawLine(img draw.Image, a, b geometry.Point, c color.Color, thickness int) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		steps = 1
	}
	half := thickness / 2
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		for dy := -half; dy < thickness-half; dy++ {
			for dx := -half; dx < thickness-half; dx++ {
				setClipped(img, x+dx, y+dy, c)
			}
		}
	}
}

func fillCircle(img draw.Image, center geometry.Point, radius int, c color.Color) {
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setClipped(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setClipped(img draw.Image, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font for digits and comma.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
