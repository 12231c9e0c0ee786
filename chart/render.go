package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	"github.com/giygas/caers-api/caersparser/entities"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderOptions controls the PNG output.
type RenderOptions struct {
	Width  int
	Height int
	Title  string
}

// DefaultRenderOptions returns a 1200x600 chart with the default title.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:  1200,
		Height: 600,
		Title:  "Most reported products by age group",
	}
}

const (
	marginLeft   = 70
	marginRight  = 170
	marginTop    = 40
	marginBottom = 90
	yTicks       = 5
	legendSwatch = 12
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	axisColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	gridColor  = color.RGBA{R: 225, G: 225, B: 225, A: 255}
	textColor  = color.RGBA{R: 20, G: 20, B: 20, A: 255}

	// one color per age group, in entities.AgeBrackets order
	palette = map[entities.AgeBracket]color.RGBA{
		entities.BracketSenior:       {R: 31, G: 119, B: 180, A: 255},
		entities.BracketMiddleAge:    {R: 255, G: 127, B: 14, A: 255},
		entities.BracketAdults:       {R: 44, G: 160, B: 44, A: 255},
		entities.BracketTeens:        {R: 214, G: 39, B: 40, A: 255},
		entities.BracketKids:         {R: 148, G: 103, B: 189, A: 255},
		entities.BracketInfants:      {R: 140, G: 86, B: 75, A: 255},
		entities.BracketNotAvailable: {R: 127, G: 127, B: 127, A: 255},
	}
)

// RenderPNG draws data as a grouped bar chart and encodes it as PNG.
func RenderPNG(w io.Writer, data Data, opts RenderOptions) error {
	img, err := Render(data, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return nil
}

// Render draws data as a grouped bar chart.
func Render(data Data, opts RenderOptions) (*image.RGBA, error) {
	if opts.Width <= marginLeft+marginRight || opts.Height <= marginTop+marginBottom {
		return nil, fmt.Errorf("chart size %dx%d is too small", opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	plot := image.Rect(marginLeft, marginTop, opts.Width-marginRight, opts.Height-marginBottom)
	drawText(img, opts.Title, marginLeft, marginTop-16)

	if len(data.Bars) == 0 {
		drawText(img, fmt.Sprintf("No product has more than %d occurrences", data.Threshold), plot.Min.X+10, plot.Min.Y+plot.Dy()/2)
		drawAxes(img, plot)
		return img, nil
	}

	top := niceCeiling(data.Max())
	drawGrid(img, plot, top)
	drawAxes(img, plot)

	groupWidth := plot.Dx() / len(data.Products)
	barWidth := max(1, groupWidth*8/10/len(data.AgeGroups))
	groupPad := (groupWidth - barWidth*len(data.AgeGroups)) / 2

	slot := make(map[entities.AgeBracket]int, len(data.AgeGroups))
	for i, group := range data.AgeGroups {
		slot[group] = i
	}
	column := make(map[string]int, len(data.Products))
	for i, product := range data.Products {
		column[product] = i
	}

	for _, bar := range data.Bars {
		x0 := plot.Min.X + column[bar.Product]*groupWidth + groupPad + slot[bar.AgeGroup]*barWidth
		height := bar.Occurrences * plot.Dy() / top
		rect := image.Rect(x0, plot.Max.Y-height, x0+barWidth, plot.Max.Y)
		draw.Draw(img, rect, &image.Uniform{C: palette[bar.AgeGroup]}, image.Point{}, draw.Src)
	}

	maxChars := max(1, groupWidth/basicfont.Face7x13.Advance)
	for i, product := range data.Products {
		label := truncate(product, maxChars)
		x := plot.Min.X + i*groupWidth + (groupWidth-measure(label))/2
		drawText(img, label, x, plot.Max.Y+16)
	}

	drawLegend(img, data.AgeGroups, opts.Width-marginRight+16, marginTop)

	return img, nil
}

func drawAxes(img *image.RGBA, plot image.Rectangle) {
	fill(img, image.Rect(plot.Min.X, plot.Min.Y, plot.Min.X+1, plot.Max.Y+1), axisColor)
	fill(img, image.Rect(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y+1), axisColor)
}

func drawGrid(img *image.RGBA, plot image.Rectangle, top int) {
	for i := 0; i <= yTicks; i++ {
		value := top * i / yTicks
		y := plot.Max.Y - plot.Dy()*i/yTicks
		if i > 0 {
			fill(img, image.Rect(plot.Min.X+1, y, plot.Max.X, y+1), gridColor)
		}
		label := strconv.Itoa(value)
		drawText(img, label, plot.Min.X-measure(label)-6, y+4)
	}
}

func drawLegend(img *image.RGBA, groups []entities.AgeBracket, x, y int) {
	for i, group := range groups {
		rowY := y + i*(legendSwatch+8)
		fill(img, image.Rect(x, rowY, x+legendSwatch, rowY+legendSwatch), palette[group])
		drawText(img, string(group), x+legendSwatch+6, rowY+legendSwatch-1)
	}
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawText(img *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func measure(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 2 {
		return string(runes[:n])
	}
	return string(runes[:n-2]) + ".."
}

// niceCeiling rounds v up to 1, 2 or 5 times a power of ten, so y ticks
// land on round numbers.
func niceCeiling(v int) int {
	if v <= 0 {
		return 1
	}
	magnitude := 1
	for magnitude*10 <= v {
		magnitude *= 10
	}
	for _, step := range []int{1, 2, 5, 10} {
		if step*magnitude >= v {
			return step * magnitude
		}
	}
	return 10 * magnitude
}
