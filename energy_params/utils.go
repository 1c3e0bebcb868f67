package energy_params

import "golang.org/x/exp/constraints"

// Min returns the smaller of a and b. Kept as a shared generic helper in the
// style of the teacher's fold/utils.go rather than Go 1.21's builtin min, so
// the ordered-comparison helper stays explicit at the call sites that cap a
// loop length against MaxLenLoop (the circular-fold hairpin and interior
// closures in mfedp and pf), where the bound being compared against is
// itself a named constant rather than another DP cell value.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
