// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package socket

import "github.com/thinking-binaries/pico-energenie/rfm69"

// fakePort is a minimal software RFM69 used to exercise the socket
// drivers end to end through radio.Facade without real hardware.
type fakePort struct {
	regs   [256]byte
	primed bool
}

func newFakePort() *fakePort {
	p := &fakePort{}
	p.regs[rfm69.RegVersion] = rfm69.Version
	p.regs[rfm69.RegIrqFlags1] = rfm69.Irq1ModeReady
	return p
}

func (p *fakePort) Transfer(tx, rx []byte) error {
	addr := tx[0] &^ 0x80
	if tx[0]&0x80 != 0 {
		p.regs[addr] = tx[1]
		if addr == rfm69.RegOpMode {
			p.regs[rfm69.RegIrqFlags1] = rfm69.Irq1ModeReady | rfm69.Irq1TxReady
		}
		return nil
	}
	rx[1] = p.regs[addr]
	return nil
}

func (p *fakePort) WriteByte(b byte) error { return nil }

func (p *fakePort) ReadByte(txFiller byte) (byte, error) {
	if !p.primed {
		p.primed = true
		return 0, nil
	}
	return 0, nil // no received frames in these tests
}

func (p *fakePort) Select()   { p.primed = false }
func (p *fakePort) Deselect() {}
func (p *fakePort) Reset() error { return nil }
func (p *fakePort) Txing(on bool) {}
func (p *fakePort) Rxing(on bool) {}
func (p *fakePort) IsInt() bool   { return false }
