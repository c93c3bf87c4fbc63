package planning

import "math"

// Headings returns the yaw in radians for every point of p, measured from
// north towards east: atan2(Δeast, Δnorth) of the segment arriving at the
// point. The first point has no incoming segment and takes the heading of
// the first segment so that the vehicle faces where it is going. A single
// point path gets heading 0.
func Headings(p Path) []float64 {
	headings := make([]float64, len(p))
	for i := 1; i < len(p); i++ {
		headings[i] = math.Atan2(float64(p[i].Col-p[i-1].Col), float64(p[i].Row-p[i-1].Row))
	}
	if len(p) > 1 {
		headings[0] = headings[1]
	}
	return headings
}
