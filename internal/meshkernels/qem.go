package meshkernels

import (
	"container/heap"
	"errors"

	"github.com/pixiejuice/engine/internal/mathkernels"
)

// quadric is the symmetric 4x4 fundamental error quadric packed as its
// 10 distinct entries, in float64 for accumulation precision across
// many summed faces.
type quadric struct {
	xx, xy, xz, xw float64
	yy, yz, yw     float64
	zz, zw         float64
	ww             float64
}

func planeQuadric(a, b, c, d float64) quadric {
	return quadric{
		xx: a * a, xy: a * b, xz: a * c, xw: a * d,
		yy: b * b, yz: b * c, yw: b * d,
		zz: c * c, zw: c * d,
		ww: d * d,
	}
}

func (q quadric) add(o quadric) quadric {
	return quadric{
		xx: q.xx + o.xx, xy: q.xy + o.xy, xz: q.xz + o.xz, xw: q.xw + o.xw,
		yy: q.yy + o.yy, yz: q.yz + o.yz, yw: q.yw + o.yw,
		zz: q.zz + o.zz, zw: q.zw + o.zw,
		ww: q.ww + o.ww,
	}
}

// cost evaluates [x,y,z,1] Q [x,y,z,1]^T.
func (q quadric) cost(v [3]float32) float64 {
	x, y, z := float64(v[0]), float64(v[1]), float64(v[2])
	return q.xx*x*x + q.yy*y*y + q.zz*z*z + q.ww +
		2*q.xy*x*y + 2*q.xz*x*z + 2*q.xw*x +
		2*q.yz*y*z + 2*q.yw*y +
		2*q.zw*z
}

// optimalPoint solves for the position minimizing q's quadratic form
// by inverting the 4x4 system [[xx,xy,xz,xw],[xy,yy,yz,yw],
// [xz,yz,zz,zw],[0,0,0,1]] and taking the resulting matrix's last
// column — the standard Garland-Heckbert construction, built on
// mathkernels.Mat4Inverse. Falls back to the midpoint when singular.
func optimalPoint(q quadric, fallback [3]float32) [3]float32 {
	d := mathkernels.Mat4{
		float32(q.xx), float32(q.xy), float32(q.xz), 0,
		float32(q.xy), float32(q.yy), float32(q.yz), 0,
		float32(q.xz), float32(q.yz), float32(q.zz), 0,
		float32(q.xw), float32(q.yw), float32(q.zw), 1,
	}
	if mathkernels.Mat4Inverse(&d) {
		return [3]float32{d[12], d[13], d[14]}
	}
	return fallback
}

type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) { uf.parent[uf.find(a)] = uf.find(b) }

type edgeKey struct{ a, b int } // a < b always

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type edgeEntry struct {
	cost     float64
	a, b     int // a < b, original vertex indices (pre-find)
	boundary bool
}

type edgeHeap []*edgeEntry

func (h edgeHeap) Len() int { return len(h) }
func (h edgeHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].a != h[j].a {
		return h[i].a < h[j].a
	}
	return h[i].b < h[j].b
}
func (h edgeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x any)   { *h = append(*h, x.(*edgeEntry)) }
func (h *edgeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// boundaryPenaltyFactor is spec.md §4.6's default: boundary edges cost
// 10x the mean interior edge cost so they are contracted last.
const boundaryPenaltyFactor = 10.0

// ErrCancelled is returned when shouldCancel reports true mid-decimation.
var ErrCancelled = errors.New("meshkernels: cancelled")

// DecimateQEM simplifies m to approximately targetRatio*TriangleCount()
// triangles using quadric error metrics, per spec.md §4.6. shouldCancel,
// when non-nil, is polled at each edge-pop per spec.md §5's cooperative
// cancellation contract; a true return aborts with ErrCancelled and no
// partial output.
func DecimateQEM(m *Mesh, targetRatio float32, shouldCancel func() bool) (*MeshDecimateResult, error) {
	if m == nil || !m.Valid() || targetRatio <= 0 || targetRatio > 1 {
		return nil, ErrInvalidArgument
	}

	vc := m.VertexCount()
	positions := make([][3]float32, vc)
	for i := 0; i < vc; i++ {
		positions[i] = m.vertexAt(uint32(i))
	}

	faces := make([][3]int, m.TriangleCount())
	for i := range faces {
		faces[i] = [3]int{int(m.Indices[i*3]), int(m.Indices[i*3+1]), int(m.Indices[i*3+2])}
	}

	quadrics := make([]quadric, vc)
	for _, f := range faces {
		p0, p1, p2 := positions[f[0]], positions[f[1]], positions[f[2]]
		n := faceNormal(p0, p1, p2)
		d := -float64(n[0])*float64(p0[0]) - float64(n[1])*float64(p0[1]) - float64(n[2])*float64(p0[2])
		q := planeQuadric(float64(n[0]), float64(n[1]), float64(n[2]), d)
		quadrics[f[0]] = quadrics[f[0]].add(q)
		quadrics[f[1]] = quadrics[f[1]].add(q)
		quadrics[f[2]] = quadrics[f[2]].add(q)
	}

	edgeFaceCount := make(map[edgeKey]int)
	vertexFaces := make(map[int][]int)
	for fi, f := range faces {
		edges := [3]edgeKey{makeEdgeKey(f[0], f[1]), makeEdgeKey(f[1], f[2]), makeEdgeKey(f[0], f[2])}
		for _, e := range edges {
			edgeFaceCount[e]++
		}
		vertexFaces[f[0]] = append(vertexFaces[f[0]], fi)
		vertexFaces[f[1]] = append(vertexFaces[f[1]], fi)
		vertexFaces[f[2]] = append(vertexFaces[f[2]], fi)
	}

	uf := newUnionFind(vc)

	computeCost := func(a, b int) (float64, [3]float32) {
		q := quadrics[a].add(quadrics[b])
		mid := [3]float32{(positions[a][0] + positions[b][0]) / 2, (positions[a][1] + positions[b][1]) / 2, (positions[a][2] + positions[b][2]) / 2}
		p := optimalPoint(q, mid)
		return q.cost(p), p
	}

	var interiorSum float64
	interiorCount := 0
	h := &edgeHeap{}
	for e, count := range edgeFaceCount {
		boundary := count == 1
		cost, _ := computeCost(e.a, e.b)
		if !boundary {
			interiorSum += cost
			interiorCount++
		}
		heap.Push(h, &edgeEntry{cost: cost, a: e.a, b: e.b, boundary: boundary})
	}
	meanInterior := 1.0
	if interiorCount > 0 {
		meanInterior = interiorSum / float64(interiorCount)
	}
	for _, e := range *h {
		if e.boundary {
			e.cost += meanInterior * boundaryPenaltyFactor
		}
	}
	heap.Init(h)

	targetTriangles := int(targetRatio*float32(len(faces))+0.5)
	if targetTriangles < 1 {
		targetTriangles = 1
	}

	rejected := make(map[edgeKey]bool)
	activeTriangles := len(faces)
	degenerate := make([]bool, len(faces))

	for h.Len() > 0 && activeTriangles > targetTriangles {
		if shouldCancel != nil && shouldCancel() {
			return nil, ErrCancelled
		}
		e := heap.Pop(h).(*edgeEntry)
		ra, rb := uf.find(e.a), uf.find(e.b)
		if ra == rb {
			continue
		}
		key := makeEdgeKey(ra, rb)
		if rejected[key] {
			continue
		}

		freshCost, point := computeCost(ra, rb)
		penalty := 0.0
		if e.boundary {
			penalty = meanInterior * boundaryPenaltyFactor
		}
		if freshCost+penalty > e.cost+1e-6 {
			heap.Push(h, &edgeEntry{cost: freshCost + penalty, a: ra, b: rb, boundary: e.boundary})
			continue
		}

		// Normal-flip check: evaluate every currently-live triangle
		// touching ra or rb as if its moved vertex sat at point.
		flips := false
		touched := append(append([]int{}, vertexFaces[ra]...), vertexFaces[rb]...)
		for _, fi := range touched {
			if degenerate[fi] {
				continue
			}
			f := faces[fi]
			va, vb, vc := uf.find(f[0]), uf.find(f[1]), uf.find(f[2])
			if va == vb || vb == vc || va == vc {
				continue // will be culled as degenerate post-contraction
			}
			orig := faceNormal(positions[f[0]], positions[f[1]], positions[f[2]])
			p := [3][3]float32{positions[f[0]], positions[f[1]], positions[f[2]]}
			for i, root := range [3]int{va, vb, vc} {
				if root == ra || root == rb {
					p[i] = point
				}
			}
			moved := faceNormal(p[0], p[1], p[2])
			if moved[0]*orig[0]+moved[1]*orig[1]+moved[2]*orig[2] < 0 {
				flips = true
				break
			}
		}
		if flips {
			rejected[key] = true
			continue
		}

		// Commit the contraction: rb merges into ra.
		uf.union(rb, ra)
		survivor := uf.find(ra)
		positions[survivor] = point
		quadrics[survivor] = quadrics[ra].add(quadrics[rb])
		vertexFaces[survivor] = append(vertexFaces[ra], vertexFaces[rb]...)

		for _, fi := range vertexFaces[survivor] {
			if degenerate[fi] {
				continue
			}
			f := faces[fi]
			va, vb, vc := uf.find(f[0]), uf.find(f[1]), uf.find(f[2])
			if va == vb || vb == vc || va == vc {
				degenerate[fi] = true
				activeTriangles--
			}
		}
	}

	// Build the output: compact surviving vertices, remap indices,
	// drop degenerate triangles.
	remap := make(map[int]int)
	var outVerts []float32
	for i := 0; i < vc; i++ {
		if uf.find(i) != i {
			continue
		}
		remap[i] = len(outVerts) / 3
		p := positions[i]
		outVerts = append(outVerts, p[0], p[1], p[2])
	}

	var outIndices []uint32
	for fi, f := range faces {
		if degenerate[fi] {
			continue
		}
		a, b, c := uf.find(f[0]), uf.find(f[1]), uf.find(f[2])
		if a == b || b == c || a == c {
			continue
		}
		outIndices = append(outIndices, uint32(remap[a]), uint32(remap[b]), uint32(remap[c]))
	}

	return &MeshDecimateResult{
		Vertices:    outVerts,
		Indices:     outIndices,
		VertexCount: len(outVerts) / 3,
		IndexCount:  len(outIndices),
		Success:     true,
	}, nil
}
