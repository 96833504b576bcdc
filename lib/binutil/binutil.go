// Package binutil contains small helpers for laying out binary files.
package binutil

// AlignUp rounds x up to a multiple of align, which must be a power of two.
func AlignUp(x, align int) int {
	return (x + align - 1) &^ (align - 1)
}

// Pad returns the number of zero bytes needed to bring x up to a multiple of
// align, which must be a power of two.
func Pad(x, align int) int {
	return (-x) & (align - 1)
}

// IsPow2 returns true if x is a positive power of two.
func IsPow2(x int) bool {
	return x > 0 && x&(x-1) == 0
}

// NextPow2 returns the smallest power of two which is greater than or equal to
// x. Returns 1 for x <= 1.
func NextPow2(x int) int {
	n := 1
	for n < x {
		n <<= 1
	}
	return n
}
