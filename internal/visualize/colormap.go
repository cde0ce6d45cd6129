package visualize

import "math"

// segment is one anchor of a piecewise-linear color channel
type segment struct {
	x, y float64
}

// Anchors of the jet colormap for red, green and blue
var jetSegments = [3][]segment{
	{{0, 0}, {0.35, 0}, {0.66, 1}, {0.89, 1}, {1, 0.5}},
	{{0, 0}, {0.125, 0}, {0.375, 1}, {0.64, 1}, {0.91, 0}, {1, 0}},
	{{0, 0.5}, {0.11, 1}, {0.34, 1}, {0.65, 0}, {1, 0}},
}

// jetLUT samples jet at 256 evenly spaced points, channels truncated to bytes
var jetLUT = func() [256][3]uint8 {
	var lut [256][3]uint8
	for i := range lut {
		x := float64(i) / 255
		for c, segs := range jetSegments {
			lut[i][c] = uint8(interpolate(segs, x) * 255)
		}
	}
	return lut
}()

func interpolate(segs []segment, x float64) float64 {
	if x <= segs[0].x {
		return segs[0].y
	}
	for i := 1; i < len(segs); i++ {
		if x <= segs[i].x {
			a, b := segs[i-1], segs[i]
			return a.y + (x-a.x)/(b.x-a.x)*(b.y-a.y)
		}
	}
	return segs[len(segs)-1].y
}

// jetIndex maps a normalized value in [0,1] to a LUT slot
func jetIndex(v float64) int {
	i := int(math.Floor(v * 256))
	if i < 0 {
		return 0
	}
	if i > 255 {
		return 255
	}
	return i
}
