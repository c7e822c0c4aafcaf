// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package openthings

// EncodeUint packs a non-negative value into the minimum number of bytes,
// zero-padded on the left to exactly length bytes. It panics if value
// doesn't fit in length bytes.
func EncodeUint(value uint64, length int) []byte {
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = byte(value)
		value >>= 8
	}
	if value != 0 {
		panic("openthings: value does not fit in length bytes")
	}
	return buf
}

// EncodeSint packs a signed value into the minimum number of bytes,
// sign-extended to exactly length bytes, two's complement.
func EncodeSint(value int64, length int) []byte {
	if value >= 0 {
		return EncodeUint(uint64(value), length)
	}
	bits, ok := highestClearBit(uint64(value), 64)
	if !ok {
		panic("openthings: cannot represent value")
	}
	needed := (bits + 2 + 7) / 8 // round the needed bit count up to a byte boundary
	if needed > length {
		panic("openthings: value does not fit in length bytes")
	}
	mask := uint64(1)<<uint(length*8) - 1
	return EncodeUint(uint64(value)&mask, length)
}

// highestClearBit scans value from bit maxbits-1 down to 0 and returns the
// index of the first clear bit found, or (0, false) if every bit up to
// maxbits is set. Used to size the minimum two's-complement width a
// negative value needs.
func highestClearBit(value uint64, maxbits int) (int, bool) {
	for bit := maxbits - 1; bit >= 0; bit-- {
		if value&(uint64(1)<<uint(bit)) == 0 {
			return bit, true
		}
	}
	return 0, false
}
