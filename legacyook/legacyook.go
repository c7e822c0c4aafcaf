// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package legacyook encodes HS1527-compatible OOK commands for the
// original Energenie ENER002-style remote sockets. These predate
// OpenThings: beyond a 20-bit house address there is no framing, no
// acknowledgement, and no encryption — a command is just a fixed 16-byte
// bit pattern repeated
// several times in a row, which is why radio.Facade.Send takes a repeat
// count.
package legacyook

// DefaultAddress is the 20-bit house address used by Energenie's own
// hand controller, reused here as a sensible default for a fresh socket.
const DefaultAddress = 0xA0170

// All selects every channel at once instead of one specific socket.
const All = 0

const (
	lowSymbol  = 0x08 // 1000: short pulse then long gap, encodes bit 0
	highSymbol = 0x0E // 1110: long pulse then short gap, encodes bit 1
)

// k values per channel, low-bit-first, taken from the HS1527 reference
// encoding: http://www.sc-tech.cn/en/1527en.htm
var channelK = [5]byte{0xC, 0xE, 0x6, 0xA, 0x2}

// SwitchToK packs a channel (0 = All, 1..4 = individual sockets) and a
// target state into the 4-bit k-code the HS1527 uses to select which
// socket(s) react to a command.
func SwitchToK(channel int, state bool) byte {
	if channel < 0 || channel > 4 {
		panic("legacyook: channel must be 0..4")
	}
	k := channelK[channel]
	if state {
		k++
	}
	return k
}

// EncodeBits packs `bits` bits of value into buf starting at byte offset,
// two bits per byte (one nibble each), MSB of value first. This is the
// HS1527 bit-to-symbol expansion: each data bit becomes a 4-bit tristate
// symbol, and two symbols share a byte.
func EncodeBits(buf []byte, value uint32, offset, bits int) {
	mask := uint32(1) << uint(bits-1)
	for i := 0; i < bits; i++ {
		symbol := byte(lowSymbol)
		if value&mask != 0 {
			symbol = highSymbol
		}
		if i%2 == 0 {
			buf[offset] = symbol << 4
		} else {
			buf[offset] |= symbol
			offset++
		}
		mask >>= 1
	}
}

// EncodeMsg packs a 32-bit preamble, a 20-bit address, and a 4-bit k-code
// into the 16-byte frame the radio transmits in OOK mode.
func EncodeMsg(address uint32, k byte) []byte {
	buf := make([]byte, 16)
	buf[0], buf[1], buf[2], buf[3] = 0x80, 0x00, 0x00, 0x00
	EncodeBits(buf, address, 4, 20)
	EncodeBits(buf, uint32(k), 14, 4)
	return buf
}
