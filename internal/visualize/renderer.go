package visualize

import (
	"fmt"
	"image"

	"go-ela-inspector/internal/analyzer"
)

// Overlays holds the rendered explainability images as data URLs
type Overlays struct {
	Preview           string
	OriginalWithBoxes string
	Heatmap           string
	HeatmapWithBoxes  string
	TopRegions        []analyzer.SuspiciousRegion
}

// Renderer produces the overlays for one analysis
type Renderer interface {
	Render(original image.Image, analysis *analyzer.Analysis) (*Overlays, error)
}

type renderer struct {
	topN int
}

// NewRenderer creates a renderer that outlines the topN largest regions
func NewRenderer(topN int) Renderer {
	if topN <= 0 {
		topN = DefaultTopBoxes
	}
	return &renderer{topN: topN}
}

// Render draws and encodes the four images on an opaque copy of original.
// It runs inside a pool worker, so encoding stays on the calling goroutine.
func (r *renderer) Render(original image.Image, analysis *analyzer.Analysis) (*Overlays, error) {
	top := TopRegions(analysis.Regions, r.topN)
	boxes := Boxes(top)
	heatmap := Heatmap(analysis.ErrorMap)
	base := analyzer.ToOpaqueRGB(original)

	images := []image.Image{
		base,
		DrawBoxes(base, boxes, BorderWidth),
		heatmap,
		DrawBoxes(heatmap, boxes, BorderWidth),
	}
	urls := make([]string, len(images))
	for i, img := range images {
		url, err := DataURL(img)
		if err != nil {
			return nil, fmt.Errorf("render image %d: %w", i, err)
		}
		urls[i] = url
	}

	return &Overlays{
		Preview:           urls[0],
		OriginalWithBoxes: urls[1],
		Heatmap:           urls[2],
		HeatmapWithBoxes:  urls[3],
		TopRegions:        top,
	}, nil
}
