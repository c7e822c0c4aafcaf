// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package rfm69 is a register-level driver for the HopeRF RFM69/RFM69HCW
// transceiver (Semtech SX1231 silicon). It implements the polled mode
// machine, burst FIFO transmit, and count-byte-prefixed FIFO receive; it
// knows nothing about OOK or FSK register tables, or about the OpenThings
// framing carried over FSK — see package radio for that.
//
// Unlike a bare microcontroller driver this one takes a context.Context on
// every blocking call: an MCU with nothing else to do can busy-wait
// forever, but a hosted Go process always has other goroutines that want
// the CPU, so every poll loop also calls runtime.Gosched() and checks for
// context cancellation.
package rfm69

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/thinking-binaries/pico-energenie/spiport"
)

func modeName(m byte) string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeTransmit:
		return "transmit"
	case ModeReceive:
		return "receive"
	default:
		return fmt.Sprintf("mode(%#x)", m)
	}
}

// ErrTimeout is returned when a register poll exceeds its context deadline.
var ErrTimeout = errors.New("rfm69: timeout waiting for register flag")

// ErrFifoOverrun is returned by ReadFifoInto when an incoming frame is
// larger than the caller's buffer. The FIFO has already been drained.
var ErrFifoOverrun = errors.New("rfm69: incoming frame too large for buffer")

// RxMode selects how Driver.RecvReady decides that a frame is waiting.
type RxMode int

const (
	// RxPoll polls the PAYLOAD_READY flag in IRQFLAGS2. This is the
	// authoritative path; it needs no extra wiring.
	RxPoll RxMode = iota
	// RxInt samples the DIO0 line as a level (no interrupt is installed).
	RxInt
)

// Driver is a generic RFM69, with no opinion on which register table is
// loaded. It is normally used through radio.Facade, not directly.
type Driver struct {
	port  spiport.Port
	mode  byte
	RxMode RxMode
}

// New wraps a port. The chip starts in an unknown mode until Reset and
// SetMode(ctx, ModeStandby) are called.
func New(port spiport.Port) *Driver {
	return &Driver{port: port, mode: ModeStandby}
}

// Reset pulses the RESET line and returns the chip to its power-on state
// (standby mode, as the datasheet specifies).
func (d *Driver) Reset() error {
	if err := d.port.Reset(); err != nil {
		return fmt.Errorf("rfm69: reset: %w", err)
	}
	d.mode = ModeStandby
	return nil
}

// ReadReg reads one register.
func (d *Driver) ReadReg(addr byte) (byte, error) {
	tx := [2]byte{addr &^ writeBit, 0}
	rx := [2]byte{}
	if err := d.port.Transfer(tx[:], rx[:]); err != nil {
		return 0, fmt.Errorf("rfm69: read reg %#x: %w", addr, err)
	}
	return rx[1], nil
}

// WriteReg writes one register.
func (d *Driver) WriteReg(addr, value byte) error {
	tx := [2]byte{addr | writeBit, value}
	rx := [2]byte{}
	if err := d.port.Transfer(tx[:], rx[:]); err != nil {
		return fmt.Errorf("rfm69: write reg %#x: %w", addr, err)
	}
	return nil
}

// WriteTable writes an ordered sequence of (addr, value) pairs. Order
// matters: mode-sensitive registers must be written before the registers
// that depend on them.
func (d *Driver) WriteTable(table []RegValue) error {
	for _, rv := range table {
		if err := d.WriteReg(rv.Addr, rv.Value); err != nil {
			return err
		}
	}
	return nil
}

// RegValue is one entry of a register table.
type RegValue struct {
	Addr  byte
	Value byte
}

// WaitReg polls addr until (value & mask) == expect, yielding between
// polls. It returns ErrTimeout if ctx is done before that happens.
func (d *Driver) WaitReg(ctx context.Context, addr, mask, expect byte) error {
	for {
		v, err := d.ReadReg(addr)
		if err != nil {
			return err
		}
		if v&mask == expect {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
			runtime.Gosched()
		}
	}
}

// Mode returns the last mode set via SetMode, or ModeStandby after New or
// Reset.
func (d *Driver) Mode() byte { return d.mode }

// Version reads the chip's VERSION register. Compare against Version to
// confirm the SPI wiring reaches a real RFM69/RFM69HCW.
func (d *Driver) Version() (byte, error) {
	return d.ReadReg(RegVersion)
}

// SetMode transitions the chip to target, waiting for MODE_READY (and, for
// TRANSMIT, TX_READY) before returning. The full sequence runs even if
// target equals the current mode, so callers can use it to re-arm.
func (d *Driver) SetMode(ctx context.Context, target byte) error {
	d.port.Txing(false)
	d.port.Rxing(false)

	if err := d.WriteReg(RegOpMode, target); err != nil {
		return err
	}

	mask, expect := Irq1ModeReady, Irq1ModeReady
	if target == ModeTransmit {
		mask, expect = Irq1ModeReady|Irq1TxReady, Irq1ModeReady|Irq1TxReady
	}
	if err := d.WaitReg(ctx, RegIrqFlags1, mask, expect); err != nil {
		return err
	}

	switch target {
	case ModeTransmit:
		d.port.Txing(true)
	case ModeReceive:
		d.port.Rxing(true)
	}
	dbgPush(fmt.Sprintf("mode -> %s", modeName(target)))
	d.mode = target
	return nil
}

// Transmit loads payload into the FIFO and transmits it `times` times back
// to back, using the FIFO_THRESH auto-start trick: setting the threshold
// to len(payload)-1 means the freshly loaded payload is immediately
// eligible for transmission, so no per-packet command round trip is
// needed between repeats. Precondition: Mode() == ModeTransmit and
// 1 <= len(payload) <= 32.
func (d *Driver) Transmit(ctx context.Context, payload []byte, times int) error {
	if times < 1 {
		panic("rfm69: times must be >= 1")
	}
	if len(payload) < 1 || len(payload) > 32 {
		panic("rfm69: payload must be 1..32 bytes")
	}

	if err := d.WriteReg(RegFifoThresh, byte(len(payload)-1)); err != nil {
		return err
	}
	dbgPush(fmt.Sprintf("transmit %d bytes x%d", len(payload), times))

	for i := 0; i < times; i++ {
		if err := d.writeFifo(payload); err != nil {
			return err
		}
		if err := d.WaitReg(ctx, RegIrqFlags2, Irq2FifoLevel, 0); err != nil {
			return err
		}
	}
	return d.WaitReg(ctx, RegIrqFlags2, Irq2FifoNotEmpty, 0)
}

// writeFifo pushes the whole payload into the FIFO register under one
// CS-held burst.
func (d *Driver) writeFifo(payload []byte) error {
	d.port.Select()
	defer d.port.Deselect()
	if err := d.port.WriteByte(RegFifo | writeBit); err != nil {
		return err
	}
	for _, b := range payload {
		if err := d.port.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// RecvReady reports whether a frame is waiting in the FIFO, per RxMode.
func (d *Driver) RecvReady() (bool, error) {
	if d.RxMode == RxInt {
		return d.port.IsInt(), nil
	}
	v, err := d.ReadReg(RegIrqFlags2)
	if err != nil {
		return false, err
	}
	return v&Irq2PayloadReady == Irq2PayloadReady, nil
}

// ReadFifoInto drains a count-byte-prefixed frame from the FIFO into buf.
// buf[0] receives the length byte and buf[1:length+1] the frame body; the
// return value is length+1 (the total bytes written), or (0, ErrFifoOverrun)
// if the incoming frame does not fit, in which case the FIFO has already
// been drained.
func (d *Driver) ReadFifoInto(buf []byte) (int, error) {
	d.port.Select()

	if _, err := d.port.ReadByte(RegFifo); err != nil {
		d.port.Deselect()
		return 0, err
	}
	length, err := d.port.ReadByte(0)
	if err != nil {
		d.port.Deselect()
		return 0, err
	}

	if int(length) > len(buf)-1 {
		d.port.Deselect()
		if err := d.ClearFifo(); err != nil {
			return 0, err
		}
		return 0, ErrFifoOverrun
	}

	buf[0] = length
	for i := 0; i < int(length); i++ {
		b, err := d.port.ReadByte(0)
		if err != nil {
			d.port.Deselect()
			return 0, err
		}
		buf[1+i] = b
	}
	d.port.Deselect()
	return int(length) + 1, nil
}

// ClearFifo drains any residual bytes from the FIFO.
func (d *Driver) ClearFifo() error {
	for {
		v, err := d.ReadReg(RegIrqFlags2)
		if err != nil {
			return err
		}
		if v&Irq2FifoNotEmpty == 0 {
			return nil
		}
		if _, err := d.ReadReg(RegFifo); err != nil {
			return err
		}
	}
}
