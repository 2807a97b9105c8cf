package compress

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"sort"
)

// MaxCodeLength is the canonical Huffman code-length cap from spec.md
// §4.4, matching teacher's own MaxAllowedCodeLength in
// internal/lossless/constants.go.
const MaxCodeLength = 15

// ErrTooManySymbols guards the 16-byte histogram header: it holds one
// count byte per length 0..15, so EncodeHuffman returns this error when
// more than 255 symbols share one code length.
var ErrTooManySymbols = errors.New("compress: too many distinct symbols for a byte alphabet")

// huffNode is a leaf (sym >= 0) or internal node (sym == -1) in the
// Huffman tree. seq gives each node a unique, monotonically increasing
// tie-breaker so that equal-frequency merges happen in a fixed,
// reproducible order — the same determinism concern teacher's own
// nodeHeap addresses in internal/lossless/encode_huffman.go.
type huffNode struct {
	freq        int
	sym         int
	seq         int
	left, right *huffNode
}

type nodeHeap []*huffNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*huffNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// buildLengths runs the classic heap-based Huffman construction and
// returns the raw (possibly over MaxCodeLength) code length for each of
// the 256 byte symbols; symbols absent from data get length 0.
func buildLengths(freq [256]int) []int {
	lengths := make([]int, 256)

	h := &nodeHeap{}
	seq := 0
	var distinct []int
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		heap.Push(h, &huffNode{freq: f, sym: sym, seq: seq})
		seq++
		distinct = append(distinct, sym)
	}

	switch len(distinct) {
	case 0:
		return lengths
	case 1:
		lengths[distinct[0]] = 1
		return lengths
	}

	heap.Init(h)
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffNode)
		b := heap.Pop(h).(*huffNode)
		parent := &huffNode{freq: a.freq + b.freq, sym: -1, seq: seq, left: a, right: b}
		seq++
		heap.Push(h, parent)
	}
	root := heap.Pop(h).(*huffNode)

	var walk func(n *huffNode, depth int)
	walk = func(n *huffNode, depth int) {
		if n.sym >= 0 {
			if depth == 0 {
				depth = 1
			}
			lengths[n.sym] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)
	return lengths
}

// limitLengths bounds a raw length histogram to MaxCodeLength using the
// classic overflow-redistribution technique (as used by libjpeg's
// jpeg_gen_optimal_table): repeatedly take two codes from the deepest
// over-limit bucket, promote one to the bucket above, and borrow a
// slot from the nearest non-empty shallower bucket. bits is indexed by
// code length (bits[0] is always 0 and unused).
func limitLengths(bits []int, limit int) {
	maxLen := len(bits) - 1
	for i := maxLen; i > limit; i-- {
		for bits[i] > 0 {
			j := i - 2
			for j > 0 && bits[j] == 0 {
				j--
			}
			bits[i] -= 2
			bits[i-1]++
			bits[j+1] += 2
			bits[j]--
		}
	}
}

// HuffmanTable is a built canonical Huffman code: per-symbol bit
// lengths plus the ordered symbol table used to reconstruct codes.
type HuffmanTable struct {
	Lengths [256]int // 0 means "not present"
}

// BuildHuffmanTable constructs length-limited canonical Huffman code
// lengths for the byte histogram of data.
func BuildHuffmanTable(data []byte) (*HuffmanTable, error) {
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	raw := buildLengths(freq)

	maxLen := 0
	for _, l := range raw {
		if l > maxLen {
			maxLen = l
		}
	}
	if maxLen > MaxCodeLength {
		bits := make([]int, maxLen+1)
		for _, l := range raw {
			if l > 0 {
				bits[l]++
			}
		}
		limitLengths(bits, MaxCodeLength)

		type symFreq struct {
			sym, freq int
		}
		var present []symFreq
		for sym, f := range freq {
			if f > 0 {
				present = append(present, symFreq{sym, f})
			}
		}
		sort.Slice(present, func(i, j int) bool {
			if present[i].freq != present[j].freq {
				return present[i].freq > present[j].freq
			}
			return present[i].sym < present[j].sym
		})

		reassigned := make([]int, 256)
		idx := 0
		for length := 1; length <= MaxCodeLength; length++ {
			for c := 0; c < bits[length]; c++ {
				reassigned[present[idx].sym] = length
				idx++
			}
		}
		raw = reassigned
	}

	return &HuffmanTable{Lengths: [256]int(raw)}, nil
}

// canonicalCodes derives, for every present symbol, its canonical code
// and assigns symbols within each length bucket in ascending symbol
// order — the standard canonical-Huffman construction that lets a
// decoder rebuild codes from lengths alone.
func canonicalCodes(lengths [256]int) (codes [256]uint32, order []int) {
	var bySym []int
	for sym, l := range lengths {
		if l > 0 {
			bySym = append(bySym, sym)
		}
	}
	sort.Slice(bySym, func(i, j int) bool {
		li, lj := lengths[bySym[i]], lengths[bySym[j]]
		if li != lj {
			return li < lj
		}
		return bySym[i] < bySym[j]
	})

	var bitCount [MaxCodeLength + 2]int
	for _, sym := range bySym {
		bitCount[lengths[sym]]++
	}

	var code uint32
	var firstCode [MaxCodeLength + 2]uint32
	for l := 1; l <= MaxCodeLength+1; l++ {
		firstCode[l] = code
		code = (code + uint32(bitCount[l])) << 1
	}

	next := firstCode
	for _, sym := range bySym {
		l := lengths[sym]
		codes[sym] = next[l]
		next[l]++
	}
	return codes, bySym
}

// EncodeHuffman compresses data with a canonical Huffman code over the
// byte alphabet. The output framing is: a 16-byte length histogram
// (count of symbols at each length 0..15), a 2-byte little-endian symbol
// count, the packed symbol table (symbols in canonical (length, symbol)
// order), a 4-byte little-endian original length, then the bit-packed
// payload.
func EncodeHuffman(data []byte) ([]byte, error) {
	table, err := BuildHuffmanTable(data)
	if err != nil {
		return nil, err
	}
	codes, order := canonicalCodes(table.Lengths)

	var histogram [16]byte
	for _, sym := range order {
		if histogram[table.Lengths[sym]] == 255 {
			return nil, ErrTooManySymbols
		}
		histogram[table.Lengths[sym]]++
	}

	out := make([]byte, 0, len(data)/2+32)
	out = append(out, histogram[:]...)
	out = append(out, byte(len(order)), byte(len(order)>>8))
	for _, sym := range order {
		out = append(out, byte(sym))
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out = append(out, lenBuf[:]...)

	w := &bitWriter{}
	for _, b := range data {
		w.writeBits(codes[b], table.Lengths[b])
	}
	out = append(out, w.flush()...)
	return out, nil
}

// DecodeHuffman reverses EncodeHuffman.
func DecodeHuffman(in []byte) ([]byte, error) {
	if len(in) < 16+2 {
		return nil, ErrCorrupt
	}
	var histogram [16]byte
	copy(histogram[:], in[:16])
	numSymbols := int(in[16]) | int(in[17])<<8

	off := 18
	if off+numSymbols > len(in) {
		return nil, ErrCorrupt
	}
	order := make([]int, numSymbols)
	for i := 0; i < numSymbols; i++ {
		order[i] = int(in[off+i])
	}
	off += numSymbols

	if off+4 > len(in) {
		return nil, ErrCorrupt
	}
	origLen := int(binary.LittleEndian.Uint32(in[off : off+4]))
	off += 4

	if origLen == 0 {
		return []byte{}, nil
	}
	if numSymbols == 0 {
		return nil, ErrCorrupt
	}

	var bitCount [MaxCodeLength + 2]int
	for l := 1; l <= MaxCodeLength; l++ {
		bitCount[l] = int(histogram[l])
	}

	var firstCode [MaxCodeLength + 2]uint32
	var firstIndex [MaxCodeLength + 2]int
	code := uint32(0)
	idx := 0
	for l := 1; l <= MaxCodeLength; l++ {
		firstCode[l] = code
		firstIndex[l] = idx
		idx += bitCount[l]
		code = (code + uint32(bitCount[l])) << 1
	}

	// Special case: a single-symbol alphabet was assigned length 1 by
	// buildLengths but its "code" is always bit 0.
	if numSymbols == 1 {
		out := make([]byte, origLen)
		sym := byte(order[0])
		for i := range out {
			out[i] = sym
		}
		return out, nil
	}

	r := &bitReader{buf: in[off:]}
	out := make([]byte, origLen)
	for i := 0; i < origLen; i++ {
		var acc uint32
		l := 0
		for {
			bit, err := r.readBit()
			if err != nil {
				return nil, err
			}
			acc = acc<<1 | uint32(bit)
			l++
			if l > MaxCodeLength {
				return nil, ErrCorrupt
			}
			if bitCount[l] > 0 && acc >= firstCode[l] && acc-firstCode[l] < uint32(bitCount[l]) {
				symOrd := firstIndex[l] + int(acc-firstCode[l])
				if symOrd >= len(order) {
					return nil, ErrCorrupt
				}
				out[i] = byte(order[symOrd])
				break
			}
		}
	}
	return out, nil
}
