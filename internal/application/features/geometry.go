package features

import (
	"math"

	"github.com/felipsoliveira/FTMap/internal/domain/pose"
)

const geomEpsilon = 1e-9

// hullFace is one triangular face of the convex hull, oriented so the
// normal points away from the interior reference point.
type hullFace struct {
	a, b, c int
}

// convexHull computes the volume and surface area of the convex hull of
// the given points with an incremental construction.  Fewer than four
// points, or a degenerate (coplanar) set, yields (0, 0), matching the
// feature-defaulting policy for thin clusters.
func convexHull(points []pose.Coord) (volume, area float64) {
	if len(points) < 4 {
		return 0, 0
	}

	seed, ok := seedTetrahedron(points)
	if !ok {
		return 0, 0
	}

	interior := centroidOf(points, seed[:])
	faces := []hullFace{
		{seed[0], seed[1], seed[2]},
		{seed[0], seed[1], seed[3]},
		{seed[0], seed[2], seed[3]},
		{seed[1], seed[2], seed[3]},
	}
	for i := range faces {
		faces[i] = orient(faces[i], points, interior)
	}

	for p := range points {
		if p == seed[0] || p == seed[1] || p == seed[2] || p == seed[3] {
			continue
		}
		faces = addPoint(faces, points, interior, p)
	}

	for _, f := range faces {
		area += triangleArea(points[f.a], points[f.b], points[f.c])
		volume += signedTetraVolume(interior, points[f.a], points[f.b], points[f.c])
	}
	return math.Abs(volume), area
}

// seedTetrahedron picks four points spanning a non-degenerate volume.
// Returns false when every point set is coplanar.
func seedTetrahedron(points []pose.Coord) ([4]int, bool) {
	var seed [4]int

	// Two distinct points.
	seed[0] = 0
	found := false
	for i := 1; i < len(points); i++ {
		if points[i].Dist(points[seed[0]]) > geomEpsilon {
			seed[1] = i
			found = true
			break
		}
	}
	if !found {
		return seed, false
	}

	// A third point off the line.
	found = false
	for i := 0; i < len(points); i++ {
		if i == seed[0] || i == seed[1] {
			continue
		}
		n := cross(points[seed[1]].Sub(points[seed[0]]), points[i].Sub(points[seed[0]]))
		if n.Norm() > geomEpsilon {
			seed[2] = i
			found = true
			break
		}
	}
	if !found {
		return seed, false
	}

	// A fourth point off the plane.
	normal := cross(points[seed[1]].Sub(points[seed[0]]), points[seed[2]].Sub(points[seed[0]]))
	for i := 0; i < len(points); i++ {
		if i == seed[0] || i == seed[1] || i == seed[2] {
			continue
		}
		if math.Abs(dot(normal, points[i].Sub(points[seed[0]]))) > geomEpsilon {
			seed[3] = i
			return seed, true
		}
	}
	return seed, false
}

// addPoint extends the hull with point p: faces visible from p are removed
// and the horizon edges are reconnected to p.
func addPoint(faces []hullFace, points []pose.Coord, interior pose.Coord, p int) []hullFace {
	visible := make([]bool, len(faces))
	any := false
	for i, f := range faces {
		if signedTetraVolume(points[p], points[f.a], points[f.b], points[f.c]) > geomEpsilon {
			visible[i] = true
			any = true
		}
	}
	if !any {
		return faces // p is inside the current hull
	}

	// Horizon edges appear in exactly one visible face; edges shared by
	// two visible faces are interior to the removed cap.
	type edge struct{ u, v int }
	count := make(map[edge]int)
	var order []edge
	for i, f := range faces {
		if !visible[i] {
			continue
		}
		for _, e := range [][2]int{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			u, v := e[0], e[1]
			if u > v {
				u, v = v, u
			}
			key := edge{u, v}
			if count[key] == 0 {
				order = append(order, key)
			}
			count[key]++
		}
	}

	kept := make([]hullFace, 0, len(faces))
	for i, f := range faces {
		if !visible[i] {
			kept = append(kept, f)
		}
	}
	for _, e := range order {
		if count[e] == 1 {
			kept = append(kept, orient(hullFace{e.u, e.v, p}, points, interior))
		}
	}
	return kept
}

// orient flips a face so its normal points away from the interior point.
func orient(f hullFace, points []pose.Coord, interior pose.Coord) hullFace {
	if signedTetraVolume(interior, points[f.a], points[f.b], points[f.c]) > 0 {
		f.b, f.c = f.c, f.b
	}
	return f
}

func centroidOf(points []pose.Coord, idx []int) pose.Coord {
	var c pose.Coord
	for _, i := range idx {
		c[0] += points[i][0]
		c[1] += points[i][1]
		c[2] += points[i][2]
	}
	n := float64(len(idx))
	c[0] /= n
	c[1] /= n
	c[2] /= n
	return c
}

// signedTetraVolume returns the signed volume of tetrahedron (o,a,b,c);
// positive when o lies on the normal side of triangle (a,b,c).
func signedTetraVolume(o, a, b, c pose.Coord) float64 {
	return dot(o.Sub(a), cross(b.Sub(a), c.Sub(a))) / 6
}

func triangleArea(a, b, c pose.Coord) float64 {
	return cross(b.Sub(a), c.Sub(a)).Norm() / 2
}

func cross(u, v pose.Coord) pose.Coord {
	return pose.Coord{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
}

func dot(u, v pose.Coord) float64 {
	return u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
}

// principalExtents returns the square roots of the eigenvalues of the
// 3×3 covariance matrix of the points, in descending order.  Eigenvalues
// come from the closed-form symmetric solution (trigonometric method), so
// no iterative solver is needed.
func principalExtents(points []pose.Coord) [3]float64 {
	n := float64(len(points))
	var mean pose.Coord
	for _, p := range points {
		mean[0] += p[0]
		mean[1] += p[1]
		mean[2] += p[2]
	}
	mean[0] /= n
	mean[1] /= n
	mean[2] /= n

	var xx, yy, zz, xy, xz, yz float64
	for _, p := range points {
		d := p.Sub(mean)
		xx += d[0] * d[0]
		yy += d[1] * d[1]
		zz += d[2] * d[2]
		xy += d[0] * d[1]
		xz += d[0] * d[2]
		yz += d[1] * d[2]
	}
	xx /= n
	yy /= n
	zz /= n
	xy /= n
	xz /= n
	yz /= n

	ev := symmetricEigenvalues(xx, yy, zz, xy, xz, yz)
	var out [3]float64
	for i, v := range ev {
		if v < 0 {
			v = 0 // clamp tiny negative round-off
		}
		out[i] = math.Sqrt(v)
	}
	return out
}

// symmetricEigenvalues solves the characteristic polynomial of a real
// symmetric 3×3 matrix analytically (Smith's trigonometric method) and
// returns the eigenvalues in descending order.
func symmetricEigenvalues(a, b, c, d, e, f float64) [3]float64 {
	// matrix [[a d e] [d b f] [e f c]]
	p1 := d*d + e*e + f*f
	if p1 < 1e-30 {
		ev := [3]float64{a, b, c}
		sortDesc(&ev)
		return ev
	}

	q := (a + b + c) / 3
	p2 := (a-q)*(a-q) + (b-q)*(b-q) + (c-q)*(c-q) + 2*p1
	p := math.Sqrt(p2 / 6)

	// B = (A − qI)/p; r = det(B)/2 clamped into [−1,1]
	ba, bb, bc := (a-q)/p, (b-q)/p, (c-q)/p
	bd, be, bf := d/p, e/p, f/p
	r := (ba*(bb*bc-bf*bf) - bd*(bd*bc-bf*be) + be*(bd*bf-bb*be)) / 2
	if r < -1 {
		r = -1
	} else if r > 1 {
		r = 1
	}

	phi := math.Acos(r) / 3
	ev := [3]float64{
		q + 2*p*math.Cos(phi),
		0,
		q + 2*p*math.Cos(phi+2*math.Pi/3),
	}
	ev[1] = 3*q - ev[0] - ev[2]
	sortDesc(&ev)
	return ev
}

func sortDesc(v *[3]float64) {
	if v[0] < v[1] {
		v[0], v[1] = v[1], v[0]
	}
	if v[1] < v[2] {
		v[1], v[2] = v[2], v[1]
	}
	if v[0] < v[1] {
		v[0], v[1] = v[1], v[0]
	}
}
