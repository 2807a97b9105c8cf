package meshkernels

// defaultCacheSize is Tom Forsyth's cache-size parameter default per
// spec.md §4.6.
const defaultCacheSize = 32

const (
	maxValence             = 15
	cacheDecayPower        = 1.5
	lastTriScore           = 0.75
	valenceBoostScale      = 2.0
	valenceBoostPower      = -0.5
)

var cachePositionScore = func() [defaultCacheSize + 3]float32 {
	var scores [defaultCacheSize + 3]float32
	for i := range scores {
		if i < 3 {
			scores[i] = lastTriScore
		} else if i < defaultCacheSize {
			scale := 1.0 - float32(i-3)/float32(defaultCacheSize-3)
			scores[i] = pow32(scale, cacheDecayPower)
		}
	}
	return scores
}()

func pow32(base float32, exp float32) float32 {
	if base <= 0 {
		return 0
	}
	// Small integer/half-integer exponents only; a tiny hand-rolled
	// pow avoids pulling in math.Pow's float64 round-trip for a
	// per-vertex hot loop. Negative exponents use the reciprocal.
	if exp < 0 {
		return 1 / pow32(base, -exp)
	}
	result := float32(1)
	whole := int(exp)
	frac := exp - float32(whole)
	for i := 0; i < whole; i++ {
		result *= base
	}
	if frac != 0 {
		result *= sqrt32(base)
	}
	return result
}

func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 12; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

// OptimizeVertexCache reorders m's index buffer to improve
// post-transform vertex cache reuse using Tom Forsyth's greedy
// scoring heuristic (recency in an LRU cache model plus a valence
// boost favoring low-degree vertices), per spec.md §4.6.
func OptimizeVertexCache(m *Mesh, cacheSize int) ([]uint32, error) {
	if m == nil || !m.Valid() {
		return nil, ErrInvalidArgument
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	vc := m.VertexCount()
	triCount := m.TriangleCount()

	vertexTris := make([][]int, vc)
	for t := 0; t < triCount; t++ {
		for k := 0; k < 3; k++ {
			v := m.Indices[t*3+k]
			vertexTris[v] = append(vertexTris[v], t)
		}
	}

	valence := make([]int, vc)
	for v := range vertexTris {
		valence[v] = len(vertexTris[v])
	}

	score := make([]float32, vc)
	cachePos := make([]int, vc) // -1 if not cached
	for v := range cachePos {
		cachePos[v] = -1
	}
	triEmitted := make([]bool, triCount)

	computeScore := func(v int) float32 {
		if valence[v] == 0 {
			return -1
		}
		var s float32
		if cachePos[v] >= 0 {
			if cachePos[v] < len(cachePositionScore) {
				s = cachePositionScore[cachePos[v]]
			}
		}
		capped := valence[v]
		if capped > maxValence {
			capped = maxValence
		}
		s += valenceBoostScale * pow32(float32(capped), valenceBoostPower)
		return s
	}

	for v := 0; v < vc; v++ {
		score[v] = computeScore(v)
	}

	cache := make([]int, 0, cacheSize+3)
	out := make([]uint32, 0, triCount*3)

	findBestTriangle := func() int {
		best := -1
		var bestScore float32 = -1
		for _, v := range cache {
			for _, t := range vertexTris[v] {
				if triEmitted[t] {
					continue
				}
				s := score[m.Indices[t*3]] + score[m.Indices[t*3+1]] + score[m.Indices[t*3+2]]
				if s > bestScore {
					bestScore = s
					best = t
				}
			}
		}
		if best >= 0 {
			return best
		}
		// Cache miss: scan all remaining triangles for the best score.
		for t := 0; t < triCount; t++ {
			if triEmitted[t] {
				continue
			}
			s := score[m.Indices[t*3]] + score[m.Indices[t*3+1]] + score[m.Indices[t*3+2]]
			if s > bestScore {
				bestScore = s
				best = t
			}
		}
		return best
	}

	for emitted := 0; emitted < triCount; emitted++ {
		t := findBestTriangle()
		if t < 0 {
			break
		}
		triEmitted[t] = true
		tv := [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}
		out = append(out, tv[0], tv[1], tv[2])

		for _, v := range tv {
			valence[v]--
		}

		newCache := make([]int, 0, len(cache)+3)
		for _, v := range tv {
			newCache = append(newCache, int(v))
		}
		for _, v := range cache {
			dup := false
			for _, nv := range tv {
				if int(nv) == v {
					dup = true
					break
				}
			}
			if !dup {
				newCache = append(newCache, v)
			}
		}
		if len(newCache) > cacheSize {
			newCache = newCache[:cacheSize]
		}
		cache = newCache

		for i, v := range cache {
			cachePos[v] = i
		}
		touched := map[int]bool{}
		for _, v := range cache {
			touched[v] = true
		}
		for v := range touched {
			score[v] = computeScore(v)
		}
	}

	return out, nil
}
