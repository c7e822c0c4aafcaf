// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package socket is the top-level API a program uses to flip a remote
// mains socket: construct a Legacy or MiHome socket bound to an address
// and channel, then call Set (or the On/Off shorthands). Both socket
// kinds share the same radio.Facade, switching its register table as
// needed; neither type is safe for concurrent use on its own, but sharing
// one Facade between several sockets is the expected pattern (see
// cmd/energenie-ctl and cmd/energenie-gw).
package socket

import (
	"context"
	"time"

	"github.com/thinking-binaries/pico-energenie/legacyook"
	"github.com/thinking-binaries/pico-energenie/openthings"
	"github.com/thinking-binaries/pico-energenie/radio"
)

// legacyReleaseGap is a short silence transmitted after the last repeat of
// a legacy OOK command, so a receiver doesn't see a trailing edge it reads
// as a stuck switch.
const legacyReleaseGap = 50 * time.Millisecond

// Socket is the common interface both socket kinds implement.
type Socket interface {
	Set(ctx context.Context, state bool) error
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

// Legacy drives an ENER002-style socket over OOK. Repeated sends are
// needed because there is no acknowledgement on this protocol; Times
// defaults to 8 repeats, matching the reference controller.
type Legacy struct {
	radio   *radio.Facade
	address uint32
	channel int
	Times   int
}

// NewLegacy binds a Legacy socket to a 20-bit house address and a channel
// (0 = All, 1..4 = an individual socket).
func NewLegacy(r *radio.Facade, address uint32, channel int) *Legacy {
	return &Legacy{radio: r, address: address, channel: channel, Times: 8}
}

// Set transmits the OOK command for state, repeating it Times times and
// holding the radio in OOK mode for the duration of the call.
func (s *Legacy) Set(ctx context.Context, state bool) error {
	if err := s.radio.WantConfig(ctx, radio.OOK); err != nil {
		return err
	}

	k := legacyook.SwitchToK(s.channel, state)
	payload := legacyook.EncodeMsg(s.address, k)

	times := s.Times
	if times < 1 {
		times = 1
	}
	if err := s.radio.Send(ctx, payload, times); err != nil {
		return err
	}
	time.Sleep(legacyReleaseGap)
	return nil
}

// On is shorthand for Set(ctx, true).
func (s *Legacy) On(ctx context.Context) error { return s.Set(ctx, true) }

// Off is shorthand for Set(ctx, false).
func (s *Legacy) Off(ctx context.Context) error { return s.Set(ctx, false) }

var _ Socket = (*Legacy)(nil)

// MiHome drives a MiHome socket over FSK/OpenThings. The on/off messages
// are precomputed at construction time since they never change for a
// given sensor ID.
type MiHome struct {
	radio      *radio.Facade
	onMessage  []byte
	offMessage []byte
	Times      int
}

// NewMiHome binds a MiHome socket to a 31-bit sensor ID.
func NewMiHome(r *radio.Facade, sensorID uint32) *MiHome {
	return &MiHome{
		radio:      r,
		onMessage:  openthings.MakeSwitchMessage(sensorID, true),
		offMessage: openthings.MakeSwitchMessage(sensorID, false),
		Times:      4,
	}
}

// Set transmits the precomputed OpenThings switch command for state.
func (s *MiHome) Set(ctx context.Context, state bool) error {
	if err := s.radio.WantConfig(ctx, radio.FSK); err != nil {
		return err
	}

	payload := s.offMessage
	if state {
		payload = s.onMessage
	}
	times := s.Times
	if times < 1 {
		times = 1
	}
	return s.radio.Send(ctx, payload, times)
}

// On is shorthand for Set(ctx, true).
func (s *MiHome) On(ctx context.Context) error { return s.Set(ctx, true) }

// Off is shorthand for Set(ctx, false).
func (s *MiHome) Off(ctx context.Context) error { return s.Set(ctx, false) }

var _ Socket = (*MiHome)(nil)
