// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package radio

import (
	"context"
	"testing"
	"time"
)

func Test_OnLoadsOokByDefault(t *testing.T) {
	port := newFakePort()
	f := New(port)

	if err := f.On(context.Background()); err != nil {
		t.Fatalf("On: %v", err)
	}
	if !port.resetSeen {
		t.Fatalf("On did not reset the chip on first use")
	}
	if f.cfg != OOK || !f.haveCfg {
		t.Fatalf("On did not load the OOK table")
	}
}

func Test_WantConfigRejectsWrongVersion(t *testing.T) {
	port := newFakePort()
	port.regs[0x10] = 0x01 // wrong VERSION
	f := New(port)

	err := f.WantConfig(context.Background(), OOK)
	if err == nil {
		t.Fatalf("expected ErrUnexpectedVersion, got nil")
	}
}

func Test_WantConfigIdempotent(t *testing.T) {
	port := newFakePort()
	f := New(port)

	if err := f.WantConfig(context.Background(), FSK); err != nil {
		t.Fatalf("first WantConfig: %v", err)
	}
	writesAfterFirst := port.regWrites

	if err := f.WantConfig(context.Background(), FSK); err != nil {
		t.Fatalf("second WantConfig: %v", err)
	}
	if port.regWrites != writesAfterFirst {
		t.Fatalf("WantConfig re-wrote the table on a repeated call with the same Config")
	}
}

func Test_SendRestoresMode(t *testing.T) {
	port := newFakePort()
	f := New(port)
	if err := f.On(context.Background()); err != nil {
		t.Fatalf("On: %v", err)
	}

	if err := f.Send(context.Background(), []byte{1, 2, 3}, 2); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// On() leaves the chip in standby; Send must restore that.
	if got := port.regs[0x01]; got != 0x04 { // RegOpMode == standby
		t.Fatalf("after Send, RegOpMode = %#x, want standby (0x04)", got)
	}
}

func Test_RecvIntoNoFrameReturnsZero(t *testing.T) {
	port := newFakePort()
	f := New(port)
	if err := f.On(context.Background()); err != nil {
		t.Fatalf("On: %v", err)
	}

	n, err := f.RecvInto(context.Background(), make([]byte, MTU), 0)
	if err != nil {
		t.Fatalf("RecvInto: %v", err)
	}
	if n != 0 {
		t.Fatalf("RecvInto = %d, want 0 with no frame queued", n)
	}
}

func Test_RecvIntoDrainsQueuedFrame(t *testing.T) {
	port := newFakePort()
	f := New(port)
	if err := f.On(context.Background()); err != nil {
		t.Fatalf("On: %v", err)
	}
	port.queueFifo(3, []byte{0xAA, 0xBB, 0xCC})

	n, err := f.RecvInto(context.Background(), make([]byte, MTU), time.Millisecond)
	if err != nil {
		t.Fatalf("RecvInto: %v", err)
	}
	if n != 4 {
		t.Fatalf("RecvInto = %d, want 4", n)
	}
}
