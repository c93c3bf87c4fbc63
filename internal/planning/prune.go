package planning

import (
	"math"

	"github.com/golang/geo/r3"
)

const collinearityEpsilon = 1e-6

func homogeneous(c Cell) r3.Vector {
	return r3.Vector{X: float64(c.Row), Y: float64(c.Col), Z: 1}
}

// collinear reports whether the determinant of the three points in
// homogeneous coordinates vanishes, i.e. the triangle has no area.
func collinear(a, b, c Cell) bool {
	det := homogeneous(a).Dot(homogeneous(b).Cross(homogeneous(c)))
	return math.Abs(det) < collinearityEpsilon
}

// Simplify keeps the end points of p and every interior point where the
// direction of travel changes. Simplify(Simplify(p)) equals Simplify(p).
func Simplify(p Path) Path {
	pruned := make(Path, len(p))
	copy(pruned, p)

	i := 0
	for i < len(pruned)-2 {
		if collinear(pruned[i], pruned[i+1], pruned[i+2]) {
			pruned = append(pruned[:i+1], pruned[i+2:]...)
		} else {
			i++
		}
	}

	return pruned
}
