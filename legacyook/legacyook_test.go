// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package legacyook

import (
	"bytes"
	"testing"
)

var kValues = map[string]struct {
	channel int
	state   bool
	want    byte
}{
	"all off": {0, false, 0xC},
	"all on":  {0, true, 0xD},
	"ch1 off": {1, false, 0xE},
	"ch1 on":  {1, true, 0xF},
	"ch4 off": {4, false, 0x2},
	"ch4 on":  {4, true, 0x3},
}

func Test_SwitchToK(t *testing.T) {
	for n, tc := range kValues {
		got := SwitchToK(tc.channel, tc.state)
		if got != tc.want {
			t.Fatalf("%s: SwitchToK(%d,%v) = %#x, want %#x", n, tc.channel, tc.state, got, tc.want)
		}
	}
}

func Test_SwitchToKPanicsOnBadChannel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range channel")
		}
	}()
	SwitchToK(5, true)
}

func Test_EncodeBitsKnownPattern(t *testing.T) {
	buf := make([]byte, 2)
	EncodeBits(buf, 0b1010, 0, 4)
	want := []byte{highSymbol<<4 | lowSymbol, highSymbol<<4 | lowSymbol}
	if !bytes.Equal(buf, want) {
		t.Fatalf("EncodeBits(0b1010) = %+v, want %+v", buf, want)
	}
}

func Test_EncodeMsgLength(t *testing.T) {
	msg := EncodeMsg(DefaultAddress, SwitchToK(All, true))
	if len(msg) != 16 {
		t.Fatalf("EncodeMsg length = %d, want 16", len(msg))
	}
	if msg[0] != 0x80 || msg[1] != 0 || msg[2] != 0 || msg[3] != 0 {
		t.Fatalf("EncodeMsg preamble = %+v, want 0x80000000", msg[:4])
	}
}

func Test_EncodeMsgDifferentAddressesDiffer(t *testing.T) {
	a := EncodeMsg(0xA0170, SwitchToK(All, true))
	b := EncodeMsg(0xA0171, SwitchToK(All, true))
	if bytes.Equal(a, b) {
		t.Fatalf("different addresses produced identical frames")
	}
}
