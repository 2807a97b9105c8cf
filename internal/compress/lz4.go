package compress

import "errors"

// LZ4 implements a literal-and-match LZ4 block codec: 4-byte minimum
// match, a 16 KiB hash-chain window, greedy parsing, and the standard
// LZ4 sequence framing (token byte, little-endian varint length
// extensions, 2-byte little-endian match offset). There is no frame
// header; callers record the original size separately, exactly as
// spec.md §4.4 specifies.
//
// The match finder is grounded on teacher's internal/lossless/hashchain.go
// VP8L backward-reference matcher: a multiplicative hash over a fixed
// window keyed into a chain of prior positions, generalized here from
// hashing 2 ARGB pixels (8 bytes) down to hashing 4 raw bytes (LZ4's
// minimum match width).

const (
	minMatch   = 4
	windowSize = 16 * 1024 // 16 KiB hash-chain window per spec.md §4.4
	hashLog    = 16
	hashSize   = 1 << hashLog
)

// ErrOutputTooSmall is returned by CompressLZ4/DecompressLZ4 when the
// destination buffer cannot hold the result.
var ErrOutputTooSmall = errors.New("compress: output buffer too small")

// ErrCorrupt is returned by DecompressLZ4 when the input stream is
// malformed: an offset points before the start of output, a literal run
// would read past the input, or the stream asks for more output bytes
// than the caller's exact-sized buffer holds.
var ErrCorrupt = errors.New("compress: corrupt lz4 stream")

func lz4Hash(b []byte) uint32 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return (v * 2654435761) >> (32 - hashLog)
}

// CompressLZ4 compresses in into out, returning the number of bytes
// written. It returns ErrOutputTooSmall if out is not large enough;
// callers that don't know a safe capacity up front should use
// CompressLZ4Bytes instead.
func CompressLZ4(in, out []byte) (int, error) {
	n := len(in)
	w := 0

	write := func(b byte) bool {
		if w >= len(out) {
			return false
		}
		out[w] = b
		w++
		return true
	}
	writeBytes := func(b []byte) bool {
		if w+len(b) > len(out) {
			return false
		}
		copy(out[w:], b)
		w += len(b)
		return true
	}
	writeVarLen := func(length int) bool {
		for length >= 255 {
			if !write(255) {
				return false
			}
			length -= 255
		}
		return write(byte(length))
	}

	var head [hashSize]int32
	for i := range head {
		head[i] = -1
	}
	chain := make([]int32, n)

	matchFind := func(pos int) (int, int) {
		if pos+minMatch > n {
			return -1, 0
		}
		h := lz4Hash(in[pos:])
		cand := head[h]
		bestLen := 0
		bestPos := -1
		lo := pos - windowSize
		tries := 0
		for cand >= 0 && int(cand) >= lo && tries < 64 {
			c := int(cand)
			length := matchLength(in, c, pos, n)
			if length > bestLen {
				bestLen = length
				bestPos = c
			}
			cand = chain[c]
			tries++
		}
		if bestLen < minMatch {
			return -1, 0
		}
		return bestPos, bestLen
	}

	insert := func(pos int) {
		if pos+minMatch > n {
			return
		}
		h := lz4Hash(in[pos:])
		chain[pos] = head[h]
		head[h] = int32(pos)
	}

	litStart := 0
	pos := 0
	for pos < n {
		matchPos, matchLen := matchFind(pos)
		if matchPos < 0 {
			insert(pos)
			pos++
			continue
		}

		litLen := pos - litStart
		tokenIdx := w
		if !write(0) { // placeholder token
			return 0, ErrOutputTooSmall
		}

		litTokenPart := litLen
		if litTokenPart > 15 {
			litTokenPart = 15
		}
		matchTokenPart := matchLen - minMatch
		if matchTokenPart > 15 {
			matchTokenPart = 15
		}
		out[tokenIdx] = byte(litTokenPart<<4 | matchTokenPart)

		if litLen >= 15 {
			if !writeVarLen(litLen - 15) {
				return 0, ErrOutputTooSmall
			}
		}
		if !writeBytes(in[litStart:pos]) {
			return 0, ErrOutputTooSmall
		}

		offset := pos - matchPos
		if !write(byte(offset)) || !write(byte(offset >> 8)) {
			return 0, ErrOutputTooSmall
		}

		if matchLen-minMatch >= 15 {
			if !writeVarLen(matchLen - minMatch - 15) {
				return 0, ErrOutputTooSmall
			}
		}

		for i := pos; i < pos+matchLen && i+minMatch <= n; i++ {
			insert(i)
		}
		pos += matchLen
		litStart = pos
	}

	// Final literal-only sequence (no trailing match, matching the
	// standard LZ4 block end convention).
	litLen := n - litStart
	tokenIdx := w
	if !write(0) {
		return 0, ErrOutputTooSmall
	}
	litTokenPart := litLen
	if litTokenPart > 15 {
		litTokenPart = 15
	}
	out[tokenIdx] = byte(litTokenPart << 4)
	if litLen >= 15 {
		if !writeVarLen(litLen - 15) {
			return 0, ErrOutputTooSmall
		}
	}
	if !writeBytes(in[litStart:n]) {
		return 0, ErrOutputTooSmall
	}

	return w, nil
}

// matchLength returns how many bytes at in[a:] and in[b:] agree, capped
// so the match never runs past n.
func matchLength(in []byte, a, b, n int) int {
	limit := n - b
	l := 0
	for l < limit && in[a+l] == in[b+l] {
		l++
	}
	return l
}

// CompressLZ4Bytes compresses src and returns a freshly allocated
// result sized exactly to the compressed length.
func CompressLZ4Bytes(src []byte) []byte {
	out := make([]byte, len(src)+len(src)/2+16)
	n, err := CompressLZ4(src, out)
	if err != nil {
		// Worst-case LZ4 output for incompressible data is bounded by
		// input size plus a small constant of framing overhead per
		// minMatch-sized run; retry once with a generous upper bound.
		out = make([]byte, len(src)*2+64)
		n, err = CompressLZ4(src, out)
		if err != nil {
			panic(err) // unreachable: out is provably large enough
		}
	}
	return out[:n]
}

// DecompressLZ4 decompresses in into out, which must be exactly the
// original size (outExact per spec.md §4.4). It fails strictly: more
// output requested than len(out) holds, an offset pointing before the
// start of output, or a literal run reading past the end of in are all
// ErrCorrupt.
func DecompressLZ4(in, out []byte) (int, error) {
	ip, op := 0, 0
	for ip < len(in) {
		token := in[ip]
		ip++

		litLen := int(token >> 4)
		if litLen == 15 {
			for {
				if ip >= len(in) {
					return 0, ErrCorrupt
				}
				b := in[ip]
				ip++
				litLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		if ip+litLen > len(in) {
			return 0, ErrCorrupt
		}
		if op+litLen > len(out) {
			return 0, ErrCorrupt
		}
		copy(out[op:op+litLen], in[ip:ip+litLen])
		ip += litLen
		op += litLen

		if ip >= len(in) {
			// Final sequence: literals only, no trailing match.
			break
		}
		if ip+2 > len(in) {
			return 0, ErrCorrupt
		}
		offset := int(in[ip]) | int(in[ip+1])<<8
		ip += 2
		if offset == 0 || offset > op {
			return 0, ErrCorrupt
		}

		matchLen := int(token & 0x0f)
		if matchLen == 15 {
			for {
				if ip >= len(in) {
					return 0, ErrCorrupt
				}
				b := in[ip]
				ip++
				matchLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		matchLen += minMatch

		if op+matchLen > len(out) {
			return 0, ErrCorrupt
		}
		matchStart := op - offset
		for i := 0; i < matchLen; i++ {
			out[op+i] = out[matchStart+i]
		}
		op += matchLen
	}
	return op, nil
}

// DecompressLZ4Bytes decompresses src into a freshly allocated slice of
// exactly exactSize bytes.
func DecompressLZ4Bytes(src []byte, exactSize int) ([]byte, error) {
	out := make([]byte, exactSize)
	n, err := DecompressLZ4(src, out)
	if err != nil {
		return nil, err
	}
	if n != exactSize {
		return nil, ErrCorrupt
	}
	return out, nil
}
