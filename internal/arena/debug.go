//go:build pixiejuice_debug

package arena

// CheckEpoch panics if wantEpoch does not match the arena's current
// epoch, i.e. a Reset happened since the offset paired with wantEpoch
// was captured. Only compiled into pixiejuice_debug builds — production
// builds pay nothing for this check, matching spec.md §4.1's "the engine
// SHOULD detect [reset-before-release violations] via epoch counters in
// debug builds" requirement.
func (a *Arena) CheckEpoch(wantEpoch uint64) {
	if a.Epoch() != wantEpoch {
		panic("arena: stale offset used after Reset (epoch mismatch)")
	}
}

// DebugBuild reports whether the pixiejuice_debug build tag is active.
const DebugBuild = true
