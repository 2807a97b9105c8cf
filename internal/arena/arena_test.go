package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocBumpsWatermark(t *testing.T) {
	a := New(1024)
	off1, err := a.Alloc(16, 8)
	require.NoError(t, err)
	require.Equal(t, 0, off1)

	off2, err := a.Alloc(16, 8)
	require.NoError(t, err)
	require.Equal(t, 16, off2)
	require.Equal(t, 32, a.Used())
}

func TestAllocRespectsAlignment(t *testing.T) {
	a := New(1024)
	_, err := a.Alloc(3, 1)
	require.NoError(t, err)
	off, err := a.Alloc(8, 8)
	require.NoError(t, err)
	require.Zero(t, off%8)
}

func TestAllocRejectsBadAlign(t *testing.T) {
	a := New(1024)
	_, err := a.Alloc(8, 3)
	require.ErrorIs(t, err, ErrInvalidAlign)

	_, err = a.Alloc(8, 128)
	require.ErrorIs(t, err, ErrInvalidAlign)
}

func TestAllocOutOfMemory(t *testing.T) {
	a := New(16)
	_, err := a.Alloc(20, 1)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

// TestArenaSafety is property 8 from spec.md §8: after reset, usage is 0.
func TestArenaSafety(t *testing.T) {
	a := New(4096)
	_, err := a.Alloc(1000, 8)
	require.NoError(t, err)
	require.NotZero(t, a.Used())

	a.Reset()
	require.Zero(t, a.Used())
}

func TestResetBumpsEpoch(t *testing.T) {
	a := New(64)
	e0 := a.Epoch()
	a.Reset()
	require.Equal(t, e0+1, a.Epoch())
}

func TestFill32(t *testing.T) {
	a := New(64)
	off, err := a.Alloc(16, 4)
	require.NoError(t, err)
	a.Fill32(off, 0xdeadbeef, 4)
	b := a.Bytes(off, 16)
	for i := 0; i < 4; i++ {
		got := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		require.Equal(t, uint32(0xdeadbeef), got)
	}
}

func TestFind(t *testing.T) {
	a := New(64)
	hOff, err := a.Alloc(11, 1)
	require.NoError(t, err)
	copy(a.Bytes(hOff, 11), "hello world")

	nOff, err := a.Alloc(5, 1)
	require.NoError(t, err)
	copy(a.Bytes(nOff, 5), "world")

	pos := a.Find(hOff, 11, nOff, 5)
	require.Equal(t, hOff+6, pos)

	nOff2, err := a.Alloc(3, 1)
	require.NoError(t, err)
	copy(a.Bytes(nOff2, 3), "xyz")
	require.Equal(t, NPOS, a.Find(hOff, 11, nOff2, 3))
}
