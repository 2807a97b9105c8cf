// Package diag provides structured logging for dispatch stage
// transitions, Arena epoch violations, and non-fatal policy events
// (e.g. "output grew, re-emitting input verbatim"). It wraps
// github.com/rs/zerolog the way SentryShot's own pkg/log wraps it
// ("API inspired by zerolog") rather than calling zerolog directly
// from every package.
package diag

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the engine-wide structured logger. Host embedders may
// redirect Output before the first Engine is constructed.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// SetOutput redirects log output, used by hosts that want JSON lines
// instead of the human-readable console writer (the WASM host, for
// instance, has no terminal to colorize for).
func SetOutput(w io.Writer) {
	Logger = zerolog.New(w).With().Timestamp().Logger()
}

// StageTransition logs a Dispatch state-machine transition.
func StageTransition(engineID uint64, from, to string) {
	Logger.Debug().Uint64("engine", engineID).Str("from", from).Str("to", to).Msg("stage transition")
}

// EpochViolation logs a detected use of a stale Arena offset (debug
// builds only; see internal/arena's build-tag-gated CheckEpoch).
func EpochViolation(engineID uint64, wantEpoch, gotEpoch uint64) {
	Logger.Warn().Uint64("engine", engineID).Uint64("want_epoch", wantEpoch).Uint64("got_epoch", gotEpoch).
		Msg("stale arena offset used after reset")
}

// OutputGrew logs the never-grow policy falling back to re-emitting
// the input verbatim.
func OutputGrew(engineID uint64, inputSize, outputSize int) {
	Logger.Warn().Uint64("engine", engineID).Int("input_size", inputSize).Int("output_size", outputSize).
		Msg("kernel output grew past input; re-emitting input verbatim")
}

// QualityNegotiationStep logs one pass of Dispatch's secant-step quality
// search toward a target reduction.
func QualityNegotiationStep(engineID uint64, iteration int, quality float64, size, target int) {
	Logger.Debug().Uint64("engine", engineID).Int("iteration", iteration).
		Float64("quality", quality).Int("size", size).Int("target_size", target).
		Msg("quality negotiation step")
}
