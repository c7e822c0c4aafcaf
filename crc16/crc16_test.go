// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package crc16

import "testing"

var frames = map[string][]byte{
	"empty body":  {0, 0},
	"one byte":    {0x42, 0, 0},
	"ot header":   {0x0D, 0x04, 0xF1, 0x01, 0x00, 0, 0},
	"mixed bytes": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0, 0},
}

func Test_SignThenVerify(t *testing.T) {
	for n, buf := range frames {
		got := make([]byte, len(buf))
		copy(got, buf)
		Sign(got)
		if !Verify(got) {
			t.Fatalf("%s: signed frame %+v did not verify", n, got)
		}
	}
}

func Test_VerifyRejectsCorruption(t *testing.T) {
	for n, buf := range frames {
		got := make([]byte, len(buf))
		copy(got, buf)
		Sign(got)
		got[0] ^= 0xFF
		if Verify(got) {
			t.Fatalf("%s: corrupted frame %+v verified anyway", n, got)
		}
	}
}

func Test_CalcKnownVector(t *testing.T) {
	// Poly 0x1021, init 0x0000, no reflection, no final XOR is the variant
	// catalogued as CRC-16/XMODEM, whose check value for "123456789" is 0x31C3.
	got := Calc([]byte("123456789"))
	if got != 0x31C3 {
		t.Fatalf("Calc(\"123456789\") = %#x, want 0x31c3", got)
	}
	again := Calc([]byte("123456789"))
	if got != again {
		t.Fatalf("Calc not deterministic: %#x vs %#x", got, again)
	}
}
