package dispatch

import (
	"math"

	"github.com/pixiejuice/engine/internal/diag"
	"github.com/pixiejuice/engine/internal/imagekernels"
)

// maxNegotiationPasses bounds the secant-method quality search, per
// spec.md §4.7's "converge within four passes or accept the closest
// quality tried" rule.
const maxNegotiationPasses = 4

// negotiationTolerance is the acceptable fractional distance from the
// target byte count before a pass is considered converged (±5%).
const negotiationTolerance = 0.05

// passStats mirrors the secant-interpolation rate-control state the
// JPEG encoder's quality search is grounded on: track the last two
// (quality, size) samples and step toward the target via linear
// interpolation between them, falling back to a fixed step on the
// first pass.
type passStats struct {
	isFirst          bool
	dq               float64
	q, lastQ         float64
	qmin, qmax       float64
	value, lastValue float64
	target           float64
}

func newPassStats(startQ, qmin, qmax, target float64) *passStats {
	return &passStats{isFirst: true, dq: 10, q: startQ, lastQ: startQ, qmin: qmin, qmax: qmax, target: target}
}

func (s *passStats) computeNextQ() float64 {
	var dq float64
	switch {
	case s.isFirst:
		if s.value > s.target {
			dq = -s.dq
		} else {
			dq = s.dq
		}
		s.isFirst = false
	case s.value != s.lastValue:
		slope := (s.target - s.value) / (s.lastValue - s.value)
		dq = slope * (s.lastQ - s.q)
	default:
		dq = 0
	}
	if dq < -30 {
		dq = -30
	}
	if dq > 30 {
		dq = 30
	}
	s.dq = dq
	s.lastQ = s.q
	s.lastValue = s.value
	s.q += dq
	if s.q < s.qmin {
		s.q = s.qmin
	}
	if s.q > s.qmax {
		s.q = s.qmax
	}
	return s.q
}

// negotiateJPEGQuality searches for a JPEG quality setting that brings
// the encoded size within negotiationTolerance of
// inputSize*(1-targetReduction), capped at maxNegotiationPasses
// passes. It always returns the best candidate found, even if no pass
// converges exactly.
func (e *Engine) negotiateJPEGQuality(grid *imagekernels.PixelGrid, inputSize int, targetReduction float64, opts Options) ([]byte, error) {
	qmin, qmax := float64(opts.QualityMin), float64(opts.QualityMax)
	if qmax <= 0 {
		qmax = 95
	}
	if qmin <= 0 {
		qmin = 5
	}
	target := float64(inputSize) * (1 - targetReduction)
	if target < 1 {
		target = 1
	}

	start := (qmin + qmax) / 2
	if opts.Image.JPEGQuality > 0 {
		start = float64(opts.Image.JPEGQuality)
	}
	stats := newPassStats(start, qmin, qmax, target)

	var best []byte
	bestDist := math.MaxFloat64

	for pass := 0; pass < maxNegotiationPasses; pass++ {
		q := int(stats.q + 0.5)
		out, err := imagekernels.EncodeJPEG(grid, q)
		if err != nil {
			return nil, err
		}
		stats.value = float64(len(out))
		diag.QualityNegotiationStep(e.id, pass, stats.q, len(out), int(target))

		dist := math.Abs(stats.value - target)
		if dist < bestDist {
			bestDist = dist
			best = out
		}
		if dist <= target*negotiationTolerance {
			break
		}
		stats.computeNextQ()
	}
	return best, nil
}
