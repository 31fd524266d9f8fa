package ppu

import "math"

// lineGuard is how far outside the canvas an endpoint may lie before the
// line is clipped geometrically instead of rasterized as given.
const lineGuard = 1024

func inGuard(v, size int) bool { return v >= -lineGuard && v < size+lineGuard }

// clipLine trims a line so that both endpoints lie near the canvas. It
// reports false when the line misses the canvas entirely.
func clipLine(x1, y1, x2, y2 *int) bool {
	if max(*x1, *x2) < 0 || min(*x1, *x2) >= Width || max(*y1, *y2) < 0 || min(*y1, *y2) >= Height {
		return false
	}
	if inGuard(*x1, Width) && inGuard(*x2, Width) && inGuard(*y1, Height) && inGuard(*y2, Height) {
		return true
	}

	// Liang-Barsky against the canvas rectangle.
	fx1, fy1 := float64(*x1), float64(*y1)
	dx, dy := float64(*x2)-fx1, float64(*y2)-fy1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, fx1},
		{dx, Width - 1 - fx1},
		{-dy, fy1},
		{dy, Height - 1 - fy1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = math.Min(t1, r)
		}
	}
	*x1, *y1 = int(math.Round(fx1+t0*dx)), int(math.Round(fy1+t0*dy))
	*x2, *y2 = int(math.Round(fx1+t1*dx)), int(math.Round(fy1+t1*dy))
	return true
}
