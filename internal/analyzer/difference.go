package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// differenceGenerator implements DifferenceGenerator by JPEG recompression
type differenceGenerator struct {
	quality     int
	enhancement float64
}

// NewDifferenceGenerator creates a generator that recompresses at quality and
// applies enhancement as both a brightness and a contrast boost.
func NewDifferenceGenerator(quality int, enhancement float64) DifferenceGenerator {
	return &differenceGenerator{
		quality:     quality,
		enhancement: enhancement,
	}
}

// Generate recompresses img, measures the per-channel error, rescales it to the
// full 0..255 range, enhances it and flattens it to luma.
func (g *differenceGenerator) Generate(img image.Image) (*ErrorMap, error) {
	original := ToOpaqueRGB(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, original, &jpeg.Options{Quality: g.quality}); err != nil {
		return nil, fmt.Errorf("recompress at quality %d: %w", g.quality, err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode recompressed image: %w", err)
	}
	recompressed := ToOpaqueRGB(decoded)

	w, h := original.Rect.Dx(), original.Rect.Dy()
	if recompressed.Rect.Dx() != w || recompressed.Rect.Dy() != h {
		return nil, fmt.Errorf("recompressed size %v differs from original %v", recompressed.Rect.Size(), original.Rect.Size())
	}

	// diff holds packed RGB triples
	diff := make([]uint8, w*h*3)
	maxDiff := 0
	for y := 0; y < h; y++ {
		a := original.Pix[y*original.Stride:]
		b := recompressed.Pix[y*recompressed.Stride:]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				d := int(a[x*4+c]) - int(b[x*4+c])
				if d < 0 {
					d = -d
				}
				diff[(y*w+x)*3+c] = uint8(d)
				if d > maxDiff {
					maxDiff = d
				}
			}
		}
	}

	// A lossless round trip has no error at all; the floor keeps scale finite
	scale := 255.0 / float64(max(maxDiff, 1))
	for i, v := range diff {
		v = blend(0, v, scale)
		diff[i] = blend(0, v, g.enhancement)
	}

	mean := meanLuma(diff, w*h)
	for i, v := range diff {
		diff[i] = blend(mean, v, g.enhancement)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		gray.Pix[i] = luma(diff[i*3], diff[i*3+1], diff[i*3+2])
	}
	return newErrorMapOwned(gray), nil
}

// ToOpaqueRGB normalizes any decoded image to a zero-origin NRGBA with every
// alpha forced to 255, which drops transparency the same way an RGB conversion does.
func ToOpaqueRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// blend interpolates from base toward v by factor and clamps to a byte.
// factor 0 yields base, 1 yields v, larger values extrapolate.
func blend(base, v uint8, factor float64) uint8 {
	t := float64(base) + factor*(float64(v)-float64(base))
	if t <= 0 {
		return 0
	}
	if t >= 255 {
		return 255
	}
	return uint8(t)
}

// luma is the ITU-R 601-2 transform in 16-bit fixed point
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// meanLuma returns the rounded mean luma of packed RGB triples
func meanLuma(rgb []uint8, pixels int) uint8 {
	if pixels == 0 {
		return 0
	}
	var sum uint64
	for i := 0; i < pixels; i++ {
		sum += uint64(luma(rgb[i*3], rgb[i*3+1], rgb[i*3+2]))
	}
	return uint8(float64(sum)/float64(pixels) + 0.5)
}
