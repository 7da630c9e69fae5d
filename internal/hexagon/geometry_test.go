package hexagon

import (
	"math"
	"testing"
)

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestVertices_DistanceAndArc(t *testing.T) {
	center := Point{X: 10, Y: -4}
	for _, rot := range []float64{0, 15, 45, 90, 137.5, -30, 720} {
		for _, size := range []float64{0.5, 1, 60} {
			vs := Vertices(center, size, rot)
			if len(vs) != 6 {
				t.Fatalf("got %d vertices", len(vs))
			}
			for i, v := range vs {
				almostEq(t, math.Hypot(v.X-center.X, v.Y-center.Y), size, 1e-9)

				next := vs[(i+1)%6]
				a0 := math.Atan2(v.Y-center.Y, v.X-center.X)
				a1 := math.Atan2(next.Y-center.Y, next.X-center.X)
				d := math.Mod(a1-a0+4*math.Pi, 2*math.Pi)
				almostEq(t, d, math.Pi/3, 1e-9)
			}
		}
	}
}

func TestVertices_FirstVertexUnrotated(t *testing.T) {
	vs := Vertices(Point{X: 3, Y: 7}, 5, 0)
	almostEq(t, vs[0].X, 8, 1e-12)
	almostEq(t, vs[0].Y, 7, 1e-12)
}

func TestVertices_FullTurnIsIdentity(t *testing.T) {
	c := Point{X: -2, Y: 1}
	a := Vertices(c, 4, 0)
	b := Vertices(c, 4, 360)
	for i := range a {
		almostEq(t, a[i].X, b[i].X, 1e-9)
		almostEq(t, a[i].Y, b[i].Y, 1e-9)
	}
}
