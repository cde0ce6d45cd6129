package visualize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/disintegration/imaging"

	"go-ela-inspector/internal/analyzer"
)

// DefaultTopBoxes is how many regions are outlined when no limit is configured
const DefaultTopBoxes = 10

// BorderWidth is the outline thickness in pixels
const BorderWidth = 5

var boxColor = color.NRGBA{R: 255, A: 255}

// TopRegions returns up to n regions ordered by box area, largest first.
// Equal areas keep their extraction order.
func TopRegions(regions []analyzer.SuspiciousRegion, n int) []analyzer.SuspiciousRegion {
	sorted := slices.Clone(regions)
	slices.SortStableFunc(sorted, func(a, b analyzer.SuspiciousRegion) int {
		return b.Area() - a.Area()
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []analyzer.SuspiciousRegion{}
	}
	return sorted
}

// Heatmap renders the error map through the jet colormap after stretching
// its value range to [0,1]. A flat map renders entirely in the lowest color.
func Heatmap(m *analyzer.ErrorMap) *image.NRGBA {
	w, h := m.Width(), m.Height()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	lo := float64(m.Min())
	span := float64(m.Max()) - lo
	if span == 0 {
		span = 1
	}
	var palette [256][3]uint8
	for v := range palette {
		palette[v] = jetLUT[jetIndex((float64(v)-lo)/span)]
	}

	for y := 0; y < h; y++ {
		dst := out.Pix[y*out.Stride:]
		for x, v := range m.Row(y) {
			c := palette[v]
			dst[x*4+0] = c[0]
			dst[x*4+1] = c[1]
			dst[x*4+2] = c[2]
			dst[x*4+3] = 0xff
		}
	}
	return out
}

// DrawBoxes returns a copy of img with each box outlined in red. The outline
// is drawn inward from the box edge and clipped to the image.
func DrawBoxes(img image.Image, boxes []image.Rectangle, thickness int) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	for _, box := range boxes {
		t := thickness
		bands := []image.Rectangle{
			image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+t), // top
			image.Rect(box.Min.X, box.Max.Y-t, box.Max.X, box.Max.Y), // bottom
			image.Rect(box.Min.X, box.Min.Y, box.Min.X+t, box.Max.Y), // left
			image.Rect(box.Max.X-t, box.Min.Y, box.Max.X, box.Max.Y), // right
		}
		for _, band := range bands {
			fill(out, band.Intersect(box).Intersect(bounds))
		}
	}
	return out
}

func fill(img *image.NRGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, boxColor)
		}
	}
}

// DataURL encodes img as PNG and wraps it in a data URL
func DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Boxes converts regions to rectangles
func Boxes(regions []analyzer.SuspiciousRegion) []image.Rectangle {
	out := make([]image.Rectangle, len(regions))
	for i, r := range regions {
		out[i] = r.Bounds()
	}
	return out
}
