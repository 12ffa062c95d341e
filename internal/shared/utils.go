// Package shared holds small helpers used by more than one layer.
package shared

// WipeByteArray zeroes b in place. Passwords and derived keys are passed
// through it once they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	clear(b)
}
