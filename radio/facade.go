// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package radio is the facade the socket drivers program against. It owns
// the one RFM69 on the board, knows the two register tables legacy and
// MiHome sockets need, and switches between them lazily so callers never
// have to think about chip configuration.
package radio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thinking-binaries/pico-energenie/openthings"
	"github.com/thinking-binaries/pico-energenie/rfm69"
	"github.com/thinking-binaries/pico-energenie/spiport"
)

// ErrUnexpectedVersion is returned by WantConfig when the chip's VERSION
// register does not read 0x24. A wrong value almost always means the SPI
// wiring or chip-select pin is wrong, not that the radio is damaged.
var ErrUnexpectedVersion = errors.New("radio: unexpected RFM69 version register")

// Facade is the single entry point a socket driver needs: power the radio
// on, send a frame, or poll for a received one. It is not safe for
// concurrent use from multiple goroutines; callers serialize access
// (cmd/energenie-gw does this with a mutex around the one radio it shares
// between sensor polling and outbound commands).
type Facade struct {
	drv     *rfm69.Driver
	cfg     Config
	haveCfg bool
	on      bool
	rxbuf   [MTU]byte
}

// New wraps port in an rfm69.Driver and returns an unconfigured, powered
// off Facade.
func New(port spiport.Port) *Facade {
	return &Facade{drv: rfm69.New(port)}
}

// On resets the chip on first use, loads the OOK table as a sane default,
// and leaves the chip in standby mode.
func (f *Facade) On(ctx context.Context) error {
	if !f.haveCfg {
		if err := f.drv.Reset(); err != nil {
			return err
		}
		if err := f.WantConfig(ctx, OOK); err != nil {
			return err
		}
	}
	if err := f.drv.SetMode(ctx, rfm69.ModeStandby); err != nil {
		return err
	}
	f.on = true
	return nil
}

// Off puts the chip in standby and marks the facade powered off. It does
// not power down the chip's crystal oscillator; there is no lower power
// state this driver uses.
func (f *Facade) Off(ctx context.Context) error {
	if err := f.drv.SetMode(ctx, rfm69.ModeStandby); err != nil {
		return err
	}
	f.on = false
	return nil
}

// WantConfig loads cfg's register table if it is not already active. The
// version check only runs on an actual table swap, so repeated calls with
// the same Config are cheap; socket drivers call this before every Send
// so they don't have to track which table is loaded.
func (f *Facade) WantConfig(ctx context.Context, cfg Config) error {
	if f.haveCfg && f.cfg == cfg {
		return nil
	}
	v, err := f.drv.Version()
	if err != nil {
		return err
	}
	if v != rfm69.Version {
		return fmt.Errorf("%w: want %#x got %#x", ErrUnexpectedVersion, rfm69.Version, v)
	}
	var table []rfm69.RegValue
	switch cfg {
	case OOK:
		table = ookTable
	case FSK:
		table = fskTable
	default:
		panic("radio: unknown config")
	}
	if err := f.drv.WriteTable(table); err != nil {
		return err
	}
	f.cfg = cfg
	f.haveCfg = true
	return nil
}

// Send transmits payload times times, restoring whatever mode the radio
// was in before the call.
func (f *Facade) Send(ctx context.Context, payload []byte, times int) error {
	entry := f.drv.Mode()
	if entry != rfm69.ModeTransmit {
		if err := f.drv.SetMode(ctx, rfm69.ModeTransmit); err != nil {
			return err
		}
	}
	if err := f.drv.Transmit(ctx, payload, times); err != nil {
		return err
	}
	if f.drv.Mode() != entry {
		return f.drv.SetMode(ctx, entry)
	}
	return nil
}

// AlwaysReceive powers the radio on, forces the FSK table (MiHome
// sensors are the only thing worth listening for continuously), and
// leaves the chip in receive mode.
func (f *Facade) AlwaysReceive(ctx context.Context) error {
	if err := f.On(ctx); err != nil {
		return err
	}
	if err := f.WantConfig(ctx, FSK); err != nil {
		return err
	}
	return f.drv.SetMode(ctx, rfm69.ModeReceive)
}

// RecvInto waits up to `wait` for a frame (wait == 0 means a single
// non-blocking check) and copies it into buf, returning the number of
// bytes written including the leading length byte. It restores whatever
// mode the radio was in on entry.
func (f *Facade) RecvInto(ctx context.Context, buf []byte, wait time.Duration) (int, error) {
	entry := f.drv.Mode()
	if entry != rfm69.ModeReceive {
		if err := f.drv.SetMode(ctx, rfm69.ModeReceive); err != nil {
			return 0, err
		}
	}
	defer func() {
		if f.drv.Mode() != entry {
			f.drv.SetMode(ctx, entry)
		}
	}()

	deadline := time.Now().Add(wait)
	for {
		ready, err := f.drv.RecvReady()
		if err != nil {
			return 0, err
		}
		if ready {
			return f.drv.ReadFifoInto(buf)
		}
		if wait == 0 || time.Now().After(deadline) {
			return 0, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// OTRecv waits for a frame and decodes it as OpenThings. A malformed or
// empty frame is a soft failure: it returns (nil, nil) rather than an
// error, since a single bad frame on a shared 433MHz band is routine and
// should not interrupt a poll loop.
func (f *Facade) OTRecv(ctx context.Context, wait time.Duration) (*openthings.Message, error) {
	n, err := f.RecvInto(ctx, f.rxbuf[:], wait)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	msg, err := openthings.Decode(f.rxbuf[1:n])
	if err != nil {
		return nil, nil
	}
	return msg, nil
}
