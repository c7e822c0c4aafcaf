// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package radio

import "github.com/thinking-binaries/pico-energenie/rfm69"

// fakePort models just enough of an RFM69's register file to drive
// Facade through configuration, send, and receive without real hardware.
type fakePort struct {
	regs      [256]byte
	fifo      []byte
	writes    int // WriteByte calls (FIFO burst payload bytes)
	regWrites int // Transfer calls that wrote a register
	selected  bool
	primed    bool
	resetSeen bool
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
		p.regWrites++
		if addr == rfm69.RegOpMode {
			p.regs[rfm69.RegIrqFlags1] = rfm69.Irq1ModeReady | rfm69.Irq1TxReady
		}
		return nil
	}
	rx[1] = p.regs[addr]
	return nil
}

func (p *fakePort) WriteByte(b byte) error {
	if !p.primed {
		p.primed = true
		return nil
	}
	p.writes++
	return nil
}

func (p *fakePort) ReadByte(txFiller byte) (byte, error) {
	if !p.primed {
		p.primed = true
		return 0, nil
	}
	if len(p.fifo) == 0 {
		return 0, nil
	}
	b := p.fifo[0]
	p.fifo = p.fifo[1:]
	return b, nil
}

func (p *fakePort) Select()   { p.selected = true; p.primed = false }
func (p *fakePort) Deselect() { p.selected = false }

func (p *fakePort) Reset() error {
	p.resetSeen = true
	return nil
}

func (p *fakePort) Txing(on bool) {}
func (p *fakePort) Rxing(on bool) {}
func (p *fakePort) IsInt() bool   { return false }

func (p *fakePort) queueFifo(length byte, body []byte) {
	p.fifo = append([]byte{length}, body...)
	p.regs[rfm69.RegIrqFlags2] = rfm69.Irq2PayloadReady | rfm69.Irq2FifoNotEmpty
}
