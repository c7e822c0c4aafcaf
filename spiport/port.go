// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package spiport provides the narrow SPI/GPIO port interface the radio core
// depends on, plus a concrete implementation backed by periph.io/x/periph.
//
// The RFM69's count-byte-prefixed receive burst needs chip-select held
// across two separate transfers (a length byte, then a variable-length
// remainder), which a kernel-managed hardware CS line can't do on its own.
// So the port drives CS itself on a plain GPIO pin rather than relying on
// the bus's own CS handling.
package spiport

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
)

// Port is the hardware port the radio core talks to. Implementations must
// support 8-bit words, MSB first, SPI mode 0, at 1MHz or faster.
type Port interface {
	// Transfer performs a full-duplex exchange of equal-length slices,
	// asserting chip-select before and releasing it after.
	Transfer(tx, rx []byte) error

	// WriteByte and ReadByte shift a single byte with CS held by the
	// caller, in between a Select/Deselect pair.
	WriteByte(b byte) error
	ReadByte(txFiller byte) (byte, error)

	// Select and Deselect give manual CS control for multi-stage FIFO
	// bursts, e.g. reading a length byte and then a variable remainder
	// under one CS assertion.
	Select()
	Deselect()

	// Reset drives the RESET line high for >=150ms, low, then holds off
	// >=100ms before the first register access.
	Reset() error

	// Txing and Rxing drive optional TX/RX indicator outputs. They have
	// no protocol effect.
	Txing(on bool)
	Rxing(on bool)

	// IsInt polls the optional DIO0 line as a level, not an interrupt.
	IsInt() bool
}

// Conn is the periph.io/x/periph-backed implementation of Port.
type Conn struct {
	spi       spi.Conn
	cs        gpio.PinIO // manually driven chip-select
	resetPin  gpio.PinIO // optional
	txPin     gpio.PinIO // optional indicator
	rxPin     gpio.PinIO // optional indicator
	dio0Pin   gpio.PinIO // optional
	csHeldLow bool
}

// Options configures a Conn. Bus and CS are required; the rest are optional
// and may be left nil.
type Options struct {
	Bus      spi.PortCloser
	CS       gpio.PinIO
	Reset    gpio.PinIO
	TxLED    gpio.PinIO
	RxLED    gpio.PinIO
	DIO0     gpio.PinIO
	SpeedHz  int64 // defaults to 1MHz
}

// New opens a Conn over the given SPI bus and CS pin, configuring the bus
// for 8-bit words, MSB first, mode 0.
func New(opts Options) (*Conn, error) {
	speed := opts.SpeedHz
	if speed == 0 {
		speed = 1_000_000
	}
	c, err := opts.Bus.Connect(physic.Frequency(speed)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spiport: cannot configure bus: %w", err)
	}
	if opts.CS == nil {
		return nil, fmt.Errorf("spiport: CS pin is required")
	}
	opts.CS.Out(gpio.High)
	return &Conn{
		spi:      c,
		cs:       opts.CS,
		resetPin: opts.Reset,
		txPin:    opts.TxLED,
		rxPin:    opts.RxLED,
		dio0Pin:  opts.DIO0,
	}, nil
}

func (c *Conn) Transfer(tx, rx []byte) error {
	c.Select()
	defer c.Deselect()
	return c.spi.Tx(tx, rx)
}

func (c *Conn) WriteByte(b byte) error {
	var rx [1]byte
	return c.spi.Tx([]byte{b}, rx[:])
}

func (c *Conn) ReadByte(txFiller byte) (byte, error) {
	var rx [1]byte
	if err := c.spi.Tx([]byte{txFiller}, rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}

func (c *Conn) Select() {
	if !c.csHeldLow {
		c.cs.Out(gpio.Low)
		c.csHeldLow = true
	}
}

func (c *Conn) Deselect() {
	c.cs.Out(gpio.High)
	c.csHeldLow = false
}

func (c *Conn) Reset() error {
	if c.resetPin == nil {
		return nil
	}
	c.resetPin.Out(gpio.High)
	time.Sleep(150 * time.Millisecond)
	c.resetPin.Out(gpio.Low)
	time.Sleep(100 * time.Millisecond)
	return nil
}

func (c *Conn) Txing(on bool) {
	if c.txPin != nil {
		c.txPin.Out(gpio.Level(on))
	}
}

func (c *Conn) Rxing(on bool) {
	if c.rxPin != nil {
		c.rxPin.Out(gpio.Level(on))
	}
}

func (c *Conn) IsInt() bool {
	if c.dio0Pin == nil {
		return false
	}
	return c.dio0Pin.Read() == gpio.High
}

var _ Port = (*Conn)(nil)
