package rewrite

// swap6, swap4, swap16, and swap2 exchange two fixed-width, possibly
// unaligned byte ranges via a stack temporary. Frame bytes are never cast
// to a wider integer type and dereferenced; every swap goes through a
// memcpy-like copy so it is safe on architectures that fault on unaligned
// word access.

func swap6(a, b []byte) {
	var tmp [6]byte
	copy(tmp[:], a)
	copy(a, b)
	copy(b, tmp[:])
}

func swap4(a, b []byte) {
	var tmp [4]byte
	copy(tmp[:], a)
	copy(a, b)
	copy(b, tmp[:])
}

func swap16(a, b []byte) {
	var tmp [16]byte
	copy(tmp[:], a)
	copy(a, b)
	copy(b, tmp[:])
}

func swap2(a, b []byte) {
	var tmp [2]byte
	copy(tmp[:], a)
	copy(a, b)
	copy(b, tmp[:])
}
