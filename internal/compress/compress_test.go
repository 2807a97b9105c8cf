package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLZ4RoundTrip is property 4 from spec.md §8: for any input,
// DecompressLZ4(CompressLZ4(data)) == data.
func TestLZ4RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("the quick brown fox jumps over the lazy dog the quick brown fox"),
		bytes.Repeat([]byte{0}, 1<<20),
	}
	for _, c := range cases {
		compressed := CompressLZ4Bytes(c)
		out, err := DecompressLZ4Bytes(compressed, len(c))
		require.NoError(t, err)
		assert.Equal(t, c, out)
	}
}

// TestLZ4ZerosEndToEnd is end-to-end scenario 4 from spec.md §8: 1 MiB
// of zeros compresses to at most 16 KiB.
func TestLZ4ZerosEndToEnd(t *testing.T) {
	src := make([]byte, 1<<20)
	out := CompressLZ4Bytes(src)
	assert.LessOrEqual(t, len(out), 16*1024)
}

func TestLZ4RandomDataRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := make([]byte, 8192)
	rng.Read(src)
	compressed := CompressLZ4Bytes(src)
	out, err := DecompressLZ4Bytes(compressed, len(src))
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestDecompressLZ4RejectsBadOffset(t *testing.T) {
	bad := []byte{0x10, 'a', 0xFF, 0xFF}
	_, err := DecompressLZ4(bad, make([]byte, 16))
	assert.ErrorIs(t, err, ErrCorrupt)
}

// TestHuffmanRoundTrip is property 5 from spec.md §8.
func TestHuffmanRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		bytes.Repeat([]byte("ab"), 5000),
	}
	for _, c := range cases {
		encoded, err := EncodeHuffman(c)
		require.NoError(t, err)
		out, err := DecodeHuffman(encoded)
		require.NoError(t, err)
		assert.Equal(t, c, out)
	}
}

func TestHuffmanRandomAlphabetRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	src := make([]byte, 20000)
	for i := range src {
		// Skewed alphabet so code lengths vary meaningfully.
		r := rng.Intn(100)
		switch {
		case r < 50:
			src[i] = 'e'
		case r < 75:
			src[i] = 't'
		case r < 90:
			src[i] = byte('a' + rng.Intn(5))
		default:
			src[i] = byte(rng.Intn(256))
		}
	}
	encoded, err := EncodeHuffman(src)
	require.NoError(t, err)
	out, err := DecodeHuffman(encoded)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

// TestHuffmanCodeLengthsCapped exercises the length-limiting path with
// a Fibonacci-weighted frequency distribution, a classic way to force
// raw Huffman code lengths past 15 for a 256-symbol alphabet.
func TestHuffmanCodeLengthsCapped(t *testing.T) {
	var data []byte
	weight := 1
	for sym := 0; sym < 40 && weight < 1<<20; sym++ {
		for i := 0; i < weight; i++ {
			data = append(data, byte(sym))
		}
		weight += weight/2 + 1
	}
	table, err := BuildHuffmanTable(data)
	require.NoError(t, err)
	for _, l := range table.Lengths {
		assert.LessOrEqual(t, l, MaxCodeLength)
	}

	encoded, err := EncodeHuffman(data)
	require.NoError(t, err)
	out, err := DecodeHuffman(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestHuffmanSingleSymbol(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 100)
	encoded, err := EncodeHuffman(data)
	require.NoError(t, err)
	out, err := DecodeHuffman(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestGetOptimalCompressionLowEntropyPicksLZ4(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 4096)
	assert.Equal(t, MethodLZ4, GetOptimalCompression(data))
}

func TestGetOptimalCompressionHighEntropyPicksNone(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := make([]byte, 4096)
	rng.Read(data)
	assert.Equal(t, MethodNone, GetOptimalCompression(data))
}

func TestCompressNeverGrows(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	data := make([]byte, 4096)
	rng.Read(data)
	out, method := Compress(data)
	assert.Equal(t, MethodNone, method)
	assert.LessOrEqual(t, len(out), len(data))
}

func TestCompressDecompressRoundTripSelected(t *testing.T) {
	data := bytes.Repeat([]byte("hello world "), 500)
	out, method := Compress(data)
	restored, err := Decompress(out, method, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, restored)
}
