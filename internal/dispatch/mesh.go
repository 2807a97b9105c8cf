package dispatch

import (
	"time"

	"github.com/pixiejuice/engine/internal/meshio"
	"github.com/pixiejuice/engine/internal/meshkernels"
)

func decodeMesh(kind Kind, input []byte) (*meshkernels.Mesh, error) {
	var m *meshkernels.Mesh
	var err error
	switch kind {
	case KindOBJ:
		m, err = meshio.DecodeOBJ(input)
	case KindPLY:
		m, err = meshio.DecodePLY(input)
	case KindSTL:
		m, err = meshio.DecodeSTL(input)
	case KindGLTF:
		m, err = meshio.DecodeGLTF(input)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, ErrMalformed
	}
	return m, nil
}

func (e *Engine) runMeshPipeline(kind Kind, input []byte, opts Options, result *Result, start time.Time) *Result {
	mesh, err := decodeMesh(kind, input)
	if err != nil {
		return e.fail(result, err, err.Error())
	}
	if !mesh.Valid() {
		return e.fail(result, ErrMalformed, "decoded mesh failed its invariant check")
	}
	e.transition(StateDecoded, StateKernel)

	mo := opts.Mesh

	if mo.WeldTolerance > 0 {
		if e.cancelRequested(opts) {
			return e.fail(result, ErrCancelled, "cancelled before weld")
		}
		welded, werr := meshkernels.Weld(mesh, mo.WeldTolerance)
		if werr != nil {
			return e.fail(result, ErrKernelFailed, werr.Error())
		}
		mesh = &meshkernels.Mesh{
			Vertices: welded.Vertices,
			Normals:  welded.Normals,
			UVs:      welded.UVs,
			Colors:   welded.Colors,
			Indices:  welded.Indices,
		}
	}

	if mo.TargetRatio > 0 && mo.TargetRatio < 1 {
		dec, derr := meshkernels.DecimateQEM(mesh, mo.TargetRatio, opts.ShouldCancel)
		if derr != nil {
			return e.fail(result, ErrCancelled, derr.Error())
		}
		if !dec.Success {
			return e.fail(result, ErrKernelFailed, dec.ErrorMsg)
		}
		mesh = &meshkernels.Mesh{Vertices: dec.Vertices, Indices: dec.Indices}
		if normals, nerr := meshkernels.ComputeNormals(mesh); nerr == nil {
			mesh.Normals = normals
		}
	}

	if mo.VertexCacheOpt {
		if e.cancelRequested(opts) {
			return e.fail(result, ErrCancelled, "cancelled before vertex cache optimization")
		}
		cacheSize := mo.CacheSize
		if cacheSize <= 0 {
			cacheSize = 32
		}
		reordered, verr := meshkernels.OptimizeVertexCache(mesh, cacheSize)
		if verr != nil {
			return e.fail(result, ErrKernelFailed, verr.Error())
		}
		mesh.Indices = reordered
	}

	output, err := encodeMesh(kind, mesh)
	if err != nil {
		return e.fail(result, ErrKernelFailed, err.Error())
	}
	e.transition(StateKernel, StateEncoded)

	return e.finishResult(result, output, input, opts, start)
}

func encodeMesh(kind Kind, m *meshkernels.Mesh) ([]byte, error) {
	switch kind {
	case KindOBJ:
		return meshio.EncodeOBJ(m)
	case KindPLY:
		return meshio.EncodePLY(m)
	case KindSTL:
		return meshio.EncodeSTL(m)
	case KindGLTF:
		return meshio.EncodeGLTF(m)
	default:
		return nil, ErrUnsupportedFormat
	}
}
