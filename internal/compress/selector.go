package compress

import "math"

// Method identifies which codec, if any, produced a Compress output.
type Method byte

const (
	MethodNone Method = iota
	MethodLZ4
	MethodHuffman
)

// sampleSize bounds the entropy estimate to a fixed prefix so the
// selector stays O(1) relative to large inputs, per spec.md §4.4's
// "cheap heuristic, not an exhaustive trial of both codecs" note.
const sampleSize = 4096

// shannonEntropy estimates bits-per-byte over data's first sampleSize
// bytes (or all of it, if shorter).
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	sample := data
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	var freq [256]int
	for _, b := range sample {
		freq[b]++
	}
	n := float64(len(sample))
	var entropy float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// runFraction reports the fraction of adjacent byte pairs in the sample
// that repeat the previous byte, a cheap proxy for run-length structure
// that LZ4 exploits but a plain canonical Huffman code does not.
func runFraction(data []byte) float64 {
	sample := data
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	if len(sample) < 2 {
		return 0
	}
	runs := 0
	for i := 1; i < len(sample); i++ {
		if sample[i] == sample[i-1] {
			runs++
		}
	}
	return float64(runs) / float64(len(sample)-1)
}

// GetOptimalCompression picks a codec for data using the entropy/run
// heuristic from spec.md §4.4: low-entropy or run-heavy data favors
// LZ4's match finder, mid-entropy data with skewed byte frequencies
// favors Huffman, and high-entropy data is left uncompressed rather
// than spend cycles on a compressor that will not earn its header.
func GetOptimalCompression(data []byte) Method {
	if len(data) == 0 {
		return MethodNone
	}
	entropy := shannonEntropy(data)
	switch {
	case entropy < 6.0:
		return MethodLZ4
	case entropy < 7.5 && runFraction(data) < 0.5:
		return MethodHuffman
	default:
		return MethodNone
	}
}

// Compress applies GetOptimalCompression's chosen codec and reports
// which one was used, enforcing spec.md's never-grow policy by falling
// back to an uncompressed copy if the chosen codec's output is not
// strictly smaller than the input.
func Compress(data []byte) ([]byte, Method) {
	method := GetOptimalCompression(data)
	switch method {
	case MethodLZ4:
		out := CompressLZ4Bytes(data)
		if len(out) < len(data) {
			return out, MethodLZ4
		}
	case MethodHuffman:
		out, err := EncodeHuffman(data)
		if err == nil && len(out) < len(data) {
			return out, MethodHuffman
		}
	}
	return append([]byte(nil), data...), MethodNone
}

// Decompress reverses Compress given the method it reported.
func Decompress(data []byte, method Method, originalSize int) ([]byte, error) {
	switch method {
	case MethodLZ4:
		return DecompressLZ4Bytes(data, originalSize)
	case MethodHuffman:
		return DecodeHuffman(data)
	default:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
}
