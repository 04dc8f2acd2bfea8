package geom

import "gonum.org/v1/gonum/spatial/r2"

// PerpLeft returns v rotated a quarter turn counterclockwise.
func PerpLeft(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// PerpRight returns v rotated a quarter turn clockwise.
func PerpRight(v r2.Vec) r2.Vec {
	return r2.Vec{X: v.Y, Y: -v.X}
}

// PathLength returns the summed segment length of a polyline.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Smooth applies Chaikin corner cutting to an open polyline. Each segment
// is replaced by two points at tightness and 1-tightness along it; the end
// points are preserved. Paths with fewer than 3 points are returned as a copy.
func Smooth(points []Point, tightness float64, repeats int) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	for i := 0; i < repeats; i++ {
		out = smoothOnce(out, tightness)
	}
	return out
}

func smoothOnce(points []Point, tightness float64) []Point {
	if len(points) < 3 {
		return points
	}

	smoothed := make([]Point, 0, (len(points)-1)*2+2)
	smoothed = append(smoothed, points[0])
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		smoothed = append(smoothed, lerp(a, b, tightness), lerp(a, b, 1-tightness))
	}
	smoothed = append(smoothed, points[len(points)-1])
	return smoothed
}

func lerp(a, b Point, t float64) Point {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}
