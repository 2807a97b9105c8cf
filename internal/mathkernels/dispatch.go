package mathkernels

import "golang.org/x/sys/cpu"

// Dispatch holds the active implementations of the batched vec3 kernels
// as package-level function variables, following teacher's capability
// dispatch pattern in internal/dsp/dsp.go: pure-Go implementations are
// wired in by init(), and a wider (4-wide unrolled) variant is swapped
// in when the CPU advertises AVX2. Both variants are pure Go — no
// assembly is introduced here (see DESIGN.md for why).
var Dispatch struct {
	Vec3Add func(a, b, out []float32) error
}

func init() {
	Dispatch.Vec3Add = Vec3Add
	if cpu.X86.HasAVX2 {
		Dispatch.Vec3Add = vec3AddUnrolled4
	}
}

// HasWideKernels reports whether the unrolled batched kernels are active
// for this process (mirrors teacher's dsp.HasAVX2 capability query).
func HasWideKernels() bool {
	return cpu.X86.HasAVX2
}

// vec3AddUnrolled4 is functionally identical to Vec3Add but processes
// four triples per loop iteration, which lets the Go compiler keep more
// values live in registers on wide-register targets. It is selected only
// when the CPU supports AVX2, as a stand-in "native" path per spec.md
// §9's "optional native kernels ... capability flag selected at build
// time" note — both paths must satisfy the same §8 properties.
func vec3AddUnrolled4(a, b, out []float32) error {
	n, err := checkVec3(a, b)
	if err != nil {
		return err
	}
	i := 0
	for ; i+4 <= n; i += 4 {
		o := i * 3
		for k := 0; k < 12; k++ {
			out[o+k] = a[o+k] + b[o+k]
		}
	}
	for ; i < n; i++ {
		o := i * 3
		out[o] = a[o] + b[o]
		out[o+1] = a[o+1] + b[o+1]
		out[o+2] = a[o+2] + b[o+2]
	}
	return nil
}
