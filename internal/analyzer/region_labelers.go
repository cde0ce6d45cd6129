package analyzer

// sliceLabeler walks each component's bounding slice only. One pass over the
// grid finds all slices, so heavily fragmented masks stay linear in image size.
type sliceLabeler struct{}

// NewSliceLabeler creates the bounding-slice labeling strategy
func NewSliceLabeler() RegionLabeler {
	return sliceLabeler{}
}

func (sliceLabeler) Name() string { return "bounding_slice" }

func (sliceLabeler) Extract(grid *LabelGrid, m *ErrorMap, opts RegionOptions) []SuspiciousRegion {
	regions := []SuspiciousRegion{}
	for i, box := range grid.boundingBoxes() {
		if box.Empty() {
			continue
		}
		label := int32(i + 1)

		pixels, sum := 0, 0
		for y := box.Min.Y; y < box.Max.Y; y++ {
			labels := grid.labels[y*grid.width+box.Min.X : y*grid.width+box.Max.X]
			values := m.Row(y)[box.Min.X:box.Max.X]
			for j, l := range labels {
				if l == label {
					pixels++
					sum += int(values[j])
				}
			}
		}

		if !keepRegion(pixels, box.Dx(), box.Dy(), opts) {
			continue
		}
		regions = append(regions, SuspiciousRegion{
			X:             box.Min.X,
			Y:             box.Min.Y,
			Width:         box.Dx(),
			Height:        box.Dy(),
			PixelCount:    pixels,
			MeanIntensity: float64(sum) / float64(pixels),
		})
	}
	return regions
}

// coordinateLabeler collects the pixel list of every component and derives
// the box, size and intensity from it.
type coordinateLabeler struct{}

// NewCoordinateLabeler creates the coordinate-enumeration labeling strategy
func NewCoordinateLabeler() RegionLabeler {
	return coordinateLabeler{}
}

func (coordinateLabeler) Name() string { return "coordinate_enumeration" }

func (coordinateLabeler) Extract(grid *LabelGrid, m *ErrorMap, opts RegionOptions) []SuspiciousRegion {
	coords := make([][]int, grid.count)
	for p, l := range grid.labels {
		if l > 0 {
			coords[l-1] = append(coords[l-1], p)
		}
	}

	regions := []SuspiciousRegion{}
	for _, pts := range coords {
		if len(pts) == 0 || len(pts) < opts.MinArea {
			continue
		}
		minX, minY := grid.width, grid.height
		maxX, maxY := -1, -1
		sum := 0
		for _, p := range pts {
			x, y := p%grid.width, p/grid.width
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			sum += int(m.At(x, y))
		}

		width, height := maxX-minX+1, maxY-minY+1
		if !keepRegion(len(pts), width, height, opts) {
			continue
		}
		regions = append(regions, SuspiciousRegion{
			X:             minX,
			Y:             minY,
			Width:         width,
			Height:        height,
			PixelCount:    len(pts),
			MeanIntensity: float64(sum) / float64(len(pts)),
		})
	}
	return regions
}
