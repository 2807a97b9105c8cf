//go:build !pixiejuice_debug

package arena

// CheckEpoch is a no-op outside pixiejuice_debug builds.
func (a *Arena) CheckEpoch(wantEpoch uint64) {}

// DebugBuild reports whether the pixiejuice_debug build tag is active.
const DebugBuild = false
