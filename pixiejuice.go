// Package pixiejuice is the public, non-WASM facade over the engine:
// it exposes dispatch.Engine and the Kind tag table to regular Go
// programs (the CLI at cmd/pixiejuice, or any host embedding the
// engine as a library rather than a WASM module), plus file-extension
// and magic-byte sniffing to pick a Kind — sniffing lives here, at the
// collaborator boundary, rather than in internal/dispatch, per
// spec.md's "format sniffing lives in external collaborators, not the
// core" scoping.
package pixiejuice

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/pixiejuice/engine/internal/dispatch"
)

// Re-export the pieces of internal/dispatch a host needs, so callers
// of this package never import internal/dispatch directly.
type (
	Kind         = dispatch.Kind
	Options      = dispatch.Options
	ImageOptions = dispatch.ImageOptions
	MeshOptions  = dispatch.MeshOptions
	Result       = dispatch.Result
	ErrorKind    = dispatch.ErrorKind
)

const (
	KindPNG  = dispatch.KindPNG
	KindJPEG = dispatch.KindJPEG
	KindWebP = dispatch.KindWebP
	KindGIF  = dispatch.KindGIF
	KindOBJ  = dispatch.KindOBJ
	KindPLY  = dispatch.KindPLY
	KindSTL  = dispatch.KindSTL
	KindGLTF = dispatch.KindGLTF
)

// ErrUnknownKind is returned by DetectKind when neither the file
// extension nor the magic bytes identify a supported container.
var ErrUnknownKind = errors.New("pixiejuice: cannot determine input kind")

// defaultArenaCapacity sizes a new Engine's Arena when the caller has
// no specific memory budget in mind.
const defaultArenaCapacity = 64 << 20

// Engine wraps a dispatch.Engine, giving library callers a stable
// public type without reaching into internal/.
type Engine struct {
	e *dispatch.Engine
}

// NewEngine allocates an Engine with an Arena of the given capacity in
// bytes; pass 0 to use a sensible default.
func NewEngine(arenaCapacity int) *Engine {
	if arenaCapacity <= 0 {
		arenaCapacity = defaultArenaCapacity
	}
	return &Engine{e: dispatch.NewEngine(arenaCapacity)}
}

// Optimize runs one optimize() call against the engine's Arena.
func (e *Engine) Optimize(kind Kind, input []byte, opts Options) *Result {
	return e.e.Optimize(kind, input, opts)
}

// magic byte prefixes for sniffing, matching the decoders each kernel
// package actually calls (stdlib image/png, image/jpeg, image/gif, plus
// this engine's own OBJ/STL/PLY/glTF text-vs-binary heuristics).
var magicPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
var magicJPEG = []byte{0xFF, 0xD8, 0xFF}
var magicGIF87 = []byte("GIF87a")
var magicGIF89 = []byte("GIF89a")
var magicRIFF = []byte("RIFF")
var magicGLTFBinary = []byte("glTF")

// DetectKind guesses a Kind from a file extension and, failing that,
// the data's magic bytes. Extension match takes priority since it is
// cheap and unambiguous for the text-based mesh formats, whose content
// has no reliable magic number.
func DetectKind(name string, data []byte) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return KindPNG, nil
	case ".jpg", ".jpeg":
		return KindJPEG, nil
	case ".gif":
		return KindGIF, nil
	case ".webp":
		return KindWebP, nil
	case ".obj":
		return KindOBJ, nil
	case ".ply":
		return KindPLY, nil
	case ".stl":
		return KindSTL, nil
	case ".gltf", ".glb":
		return KindGLTF, nil
	}

	switch {
	case bytes.HasPrefix(data, magicPNG):
		return KindPNG, nil
	case bytes.HasPrefix(data, magicJPEG):
		return KindJPEG, nil
	case bytes.HasPrefix(data, magicGIF87), bytes.HasPrefix(data, magicGIF89):
		return KindGIF, nil
	case bytes.HasPrefix(data, magicRIFF):
		return KindWebP, nil
	case bytes.HasPrefix(data, magicGLTFBinary):
		return KindGLTF, nil
	case looksLikeJSON(data):
		return KindGLTF, nil
	case looksLikePLY(data):
		return KindPLY, nil
	case looksLikeOBJ(data):
		return KindOBJ, nil
	}
	return 0, ErrUnknownKind
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func looksLikePLY(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("ply"))
}

func looksLikeOBJ(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	for _, prefix := range [][]byte{[]byte("v "), []byte("vn "), []byte("vt "), []byte("f "), []byte("# ")} {
		if bytes.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}
