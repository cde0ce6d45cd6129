package analyzer

import "image"

// LabelGrid is a 4-connected component labeling of a boolean mask.
// Label 0 is background; components are numbered 1..Count in the raster order
// of their first pixel.
type LabelGrid struct {
	width, height int
	labels        []int32
	count         int
}

// Count returns the number of labeled components
func (g *LabelGrid) Count() int { return g.count }

// Width returns the number of columns
func (g *LabelGrid) Width() int { return g.width }

// Height returns the number of rows
func (g *LabelGrid) Height() int { return g.height }

// LabelAt returns the component label of (x, y)
func (g *LabelGrid) LabelAt(x, y int) int { return int(g.labels[y*g.width+x]) }

// LabelComponents labels the 4-connected components of mask, which is a
// row-major w*h grid. An explicit stack keeps memory bounded on large blobs.
func LabelComponents(mask []bool, w, h int) *LabelGrid {
	g := &LabelGrid{width: w, height: h, labels: make([]int32, len(mask))}
	stack := make([]int, 0, 256)

	var next int32
	for i, on := range mask {
		if !on || g.labels[i] != 0 {
			continue
		}
		next++
		g.labels[i] = next
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			if x > 0 && mask[p-1] && g.labels[p-1] == 0 {
				g.labels[p-1] = next
				stack = append(stack, p-1)
			}
			if x < w-1 && mask[p+1] && g.labels[p+1] == 0 {
				g.labels[p+1] = next
				stack = append(stack, p+1)
			}
			if y > 0 && mask[p-w] && g.labels[p-w] == 0 {
				g.labels[p-w] = next
				stack = append(stack, p-w)
			}
			if y < h-1 && mask[p+w] && g.labels[p+w] == 0 {
				g.labels[p+w] = next
				stack = append(stack, p+w)
			}
		}
	}
	g.count = int(next)
	return g
}

// boundingBoxes returns, per label, the smallest rectangle containing it.
// Index i holds label i+1.
func (g *LabelGrid) boundingBoxes() []image.Rectangle {
	boxes := make([]image.Rectangle, g.count)
	seen := make([]bool, g.count)
	for y := 0; y < g.height; y++ {
		row := g.labels[y*g.width : (y+1)*g.width]
		for x, l := range row {
			if l == 0 {
				continue
			}
			i := l - 1
			if !seen[i] {
				boxes[i] = image.Rect(x, y, x+1, y+1)
				seen[i] = true
				continue
			}
			b := &boxes[i]
			if x < b.Min.X {
				b.Min.X = x
			}
			if x+1 > b.Max.X {
				b.Max.X = x + 1
			}
			if y+1 > b.Max.Y {
				b.Max.Y = y + 1
			}
		}
	}
	return boxes
}

// suspiciousMask marks pixels whose error is strictly above threshold
func suspiciousMask(m *ErrorMap, threshold float64) ([]bool, int) {
	w, h := m.Width(), m.Height()
	mask := make([]bool, w*h)
	n := 0
	for y := 0; y < h; y++ {
		for x, v := range m.Row(y) {
			if float64(v) > threshold {
				mask[y*w+x] = true
				n++
			}
		}
	}
	return mask, n
}

// openMask applies one binary opening with a 2x2 square: a pixel survives iff
// it belongs to some 2x2 square lying entirely inside the mask and the image.
func openMask(mask []bool, w, h int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y+1 < h; y++ {
		for x := 0; x+1 < w; x++ {
			i := y*w + x
			if mask[i] && mask[i+1] && mask[i+w] && mask[i+w+1] {
				out[i], out[i+1], out[i+w], out[i+w+1] = true, true, true, true
			}
		}
	}
	return out
}

// keepRegion applies the size and dimension filters shared by both labelers
func keepRegion(pixels, width, height int, opts RegionOptions) bool {
	return pixels >= opts.MinArea && width > opts.MinDimension && height > opts.MinDimension
}

// regionExtractor implements RegionExtractor
type regionExtractor struct {
	opts        RegionOptions
	sliceBased  RegionLabeler
	coordinates RegionLabeler
}

// NewRegionExtractor creates an extractor using both labeling strategies
func NewRegionExtractor(opts RegionOptions) RegionExtractor {
	return &regionExtractor{
		opts:        opts,
		sliceBased:  NewSliceLabeler(),
		coordinates: NewCoordinateLabeler(),
	}
}

// Extract segments the map into suspicious regions above threshold
func (e *regionExtractor) Extract(m *ErrorMap, threshold float64) []SuspiciousRegion {
	regions := []SuspiciousRegion{}
	total := m.Len()
	if total == 0 {
		return regions
	}

	mask, suspicious := suspiciousMask(m, threshold)
	if suspicious == 0 {
		return regions
	}

	// A large suspicious share is mostly speckle; opening drops isolated pixels
	if float64(suspicious)/float64(total)*100 > e.opts.NoisePercent {
		mask = openMask(mask, m.Width(), m.Height())
	}

	grid := LabelComponents(mask, m.Width(), m.Height())
	if grid.Count() == 0 {
		return regions
	}
	return e.labelerFor(grid.Count()).Extract(grid, m, e.opts)
}

func (e *regionExtractor) labelerFor(components int) RegionLabeler {
	if components > e.opts.StrategySwitch {
		return e.sliceBased
	}
	return e.coordinates
}
