package wasmhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixiejuice/engine/internal/dispatch"
)

func TestDecodeOptionsAppliesOnlyFlaggedFields(t *testing.T) {
	raw := EncodeOptions(dispatch.Options{Mesh: dispatch.MeshOptions{WeldTolerance: 0.5}}, optMeshDeduplicate)
	opts, err := DecodeOptions(dispatch.KindOBJ, raw)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), opts.Mesh.WeldTolerance)
	assert.Zero(t, opts.Mesh.TargetRatio)
}

func TestDecodeOptionsMeshSimplifyDefaultsToHalf(t *testing.T) {
	raw := EncodeOptions(dispatch.Options{}, optMeshSimplify)
	opts, err := DecodeOptions(dispatch.KindOBJ, raw)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), opts.Mesh.TargetRatio)
}

func TestDecodeOptionsRejectsShortBuffer(t *testing.T) {
	_, err := DecodeOptions(dispatch.KindPNG, make([]byte, 2))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestEncodeDecodeResultRoundTrip(t *testing.T) {
	r := &dispatch.Result{
		ErrorKind:  dispatch.KindOK,
		InputSize:  1000,
		OutputSize: 400,
		Duration:   250 * time.Millisecond,
		ErrorMsg:   "",
	}
	buf := EncodeResult(r, 4096)
	status, outPtr, outLen, origSize, optSize, durationMs, msg, err := DecodeResult(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(dispatch.KindOK), status)
	assert.Equal(t, uint32(4096), outPtr)
	assert.Equal(t, uint32(400), outLen)
	assert.Equal(t, uint32(1000), origSize)
	assert.Equal(t, uint32(400), optSize)
	assert.Equal(t, uint32(250), durationMs)
	assert.Empty(t, msg)
}

func TestEncodeResultTruncatesLongMessage(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	r := &dispatch.Result{ErrorKind: dispatch.KindKernelFailed, ErrorMsg: string(long)}
	buf := EncodeResult(r, 0)
	_, _, _, _, _, _, msg, err := DecodeResult(buf)
	require.NoError(t, err)
	assert.Len(t, msg, resultMessageSize-1)
}

func TestDecodeResultRejectsShortBuffer(t *testing.T) {
	_, _, _, _, _, _, _, err := DecodeResult(make([]byte, 4))
	assert.ErrorIs(t, err, ErrShortBuffer)
}
