// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

import (
	"context"
	"testing"
)

func Test_ReadWriteReg(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	if err := drv.WriteReg(RegBitrateMsb, 0x1A); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	got, err := drv.ReadReg(RegBitrateMsb)
	if err != nil {
		t.Fatalf("ReadReg: %v", err)
	}
	if got != 0x1A {
		t.Fatalf("ReadReg = %#x, want 0x1A", got)
	}
}

func Test_SetModeTransmit(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	if err := drv.SetMode(context.Background(), ModeTransmit); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if drv.Mode() != ModeTransmit {
		t.Fatalf("Mode() = %#x, want ModeTransmit", drv.Mode())
	}
	if port.regs[RegOpMode] != ModeTransmit {
		t.Fatalf("RegOpMode = %#x, want ModeTransmit", port.regs[RegOpMode])
	}
}

func Test_TransmitWritesFifoBurst(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	if err := drv.SetMode(context.Background(), ModeTransmit); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	port.writes = nil // drop the OpMode write; keep only what Transmit logs

	payload := []byte{1, 2, 3, 4}
	if err := drv.Transmit(context.Background(), payload, 3); err != nil {
		t.Fatalf("Transmit: %v", err)
	}

	if port.regs[RegFifoThresh] != byte(len(payload)-1) {
		t.Fatalf("RegFifoThresh = %d, want %d", port.regs[RegFifoThresh], len(payload)-1)
	}
	fifoBytes := len(port.writes) - 2 // the first pair is the FifoThresh register write
	if fifoBytes != len(payload)*3 {
		t.Fatalf("got %d bytes written to FIFO, want %d (3 repeats of %d bytes)",
			fifoBytes, len(payload)*3, len(payload))
	}
}

func Test_TransmitRejectsOversizePayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for 33-byte payload")
		}
	}()
	port := newFakePort()
	drv := New(port)
	drv.Transmit(context.Background(), make([]byte, 33), 1)
}

func Test_ReadFifoInto(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	body := []byte{0xAA, 0xBB, 0xCC}
	port.queueFifo(byte(len(body)), body)

	buf := make([]byte, 16)
	n, err := drv.ReadFifoInto(buf)
	if err != nil {
		t.Fatalf("ReadFifoInto: %v", err)
	}
	if n != len(body)+1 {
		t.Fatalf("n = %d, want %d", n, len(body)+1)
	}
	if buf[0] != byte(len(body)) {
		t.Fatalf("buf[0] = %d, want length %d", buf[0], len(body))
	}
	for i, b := range body {
		if buf[1+i] != b {
			t.Fatalf("buf[%d] = %#x, want %#x", 1+i, buf[1+i], b)
		}
	}
}

func Test_ReadFifoIntoOverrun(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	body := []byte{1, 2, 3, 4, 5}
	port.queueFifo(byte(len(body)), body)

	buf := make([]byte, 3) // too small for a 5-byte body
	_, err := drv.ReadFifoInto(buf)
	if err != ErrFifoOverrun {
		t.Fatalf("want ErrFifoOverrun, got %v", err)
	}
}

func Test_RecvReadyFollowsPayloadReadyFlag(t *testing.T) {
	port := newFakePort()
	drv := New(port)

	ready, err := drv.RecvReady()
	if err != nil {
		t.Fatalf("RecvReady: %v", err)
	}
	if ready {
		t.Fatalf("RecvReady = true before any frame queued")
	}

	port.queueFifo(1, []byte{0x42})
	ready, err = drv.RecvReady()
	if err != nil {
		t.Fatalf("RecvReady: %v", err)
	}
	if !ready {
		t.Fatalf("RecvReady = false after a frame was queued")
	}
}

func Test_Version(t *testing.T) {
	port := newFakePort()
	port.regs[RegVersion] = Version
	drv := New(port)

	v, err := drv.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != Version {
		t.Fatalf("Version() = %#x, want %#x", v, Version)
	}
}

func Test_ResetReachesPort(t *testing.T) {
	port := newFakePort()
	drv := New(port)
	if err := drv.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !port.resetSeen {
		t.Fatalf("port.Reset was not called")
	}
}
