// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package openthings decodes and encodes OpenThings frames, the
// encrypted TLV protocol MiHome FSK sensors and sockets speak over the
// RFM69's FSK link. It knows nothing about the radio itself; callers
// (package radio) hand it raw FIFO payloads and get back a Message, or
// build a switch command with MakeSwitchMessage and hand the bytes to the
// radio to transmit.
package openthings

import (
	"errors"

	"github.com/thinking-binaries/pico-energenie/crc16"
	"github.com/thinking-binaries/pico-energenie/otcipher"
)

// ErrShortPayload is returned by Decode when the frame is too small to
// contain a header, a sensor ID, and a CRC.
var ErrShortPayload = errors.New("openthings: payload too short")

// ErrBadCRC is returned by Decode when the frame's CRC does not match
// after decryption.
var ErrBadCRC = errors.New("openthings: CRC mismatch")

const (
	mfrIDEnergenie = 0x04

	headerLen  = 5
	cryptIdx   = 3
	cryptPID   = 242
	cryptPIP   = 0x0100

	switchProdIdx   = 2
	switchSensorIdx = 5
	switchValueIdx  = 10

	writeFlag = 0x80
)

// minFrameLen is headerLen + 3-byte sensor ID + NUL terminator + 2-byte CRC.
const minFrameLen = headerLen + 3 + 1 + 2

// Header is the unencrypted part of an OpenThings frame.
type Header struct {
	MfrID     byte
	ProductID byte
}

// Record is one decoded parameter/value pair from a frame's body.
type Record struct {
	Write     bool
	ParamID   byte
	ParamName string
	Unit      string
	TypeID    byte
	TypeName  string
	Length    int
	Raw       []byte
	Value     interface{} // float64, int64, string, or nil if undecodable
}

// Message is a fully decoded OpenThings frame.
type Message struct {
	Header   Header
	SensorID uint32
	Records  []Record
}

// MakeSwitchMessage builds a 14-byte encrypted switch command for the
// given sensor ID, matching the template MiHome sockets expect:
// header, 3-byte sensor ID, a single SWITCH_STATE record, a NUL
// terminator, and a CRC, then encrypted with the fixed transmit seed.
func MakeSwitchMessage(sensorID uint32, state bool) []byte {
	sensorID &= 0x7FFFFFFF // high bit is always clear for MiHome

	buf := []byte{
		0x0D, mfrIDEnergenie, 0, byte(cryptPIP >> 8), byte(cryptPIP & 0xFF),
		0, 0, 0,
		writeFlag | ParamSwitchState,
		TypeUint | 1,
		0,
		0,
		0, 0,
	}
	buf[switchProdIdx] = byte(sensorID >> 24)
	buf[switchSensorIdx+0] = byte(sensorID >> 16)
	buf[switchSensorIdx+1] = byte(sensorID >> 8)
	buf[switchSensorIdx+2] = byte(sensorID)
	if state {
		buf[switchValueIdx] = 1
	}

	body := buf[headerLen:]
	crc16.Sign(body)
	otcipher.New(cryptPID, cryptPIP).Block(body)
	return buf
}

// Decode decrypts and parses frame, which must start at the length byte
// (the leading FIFO count byte is not part of this).
func Decode(frame []byte) (*Message, error) {
	if len(frame) < minFrameLen {
		return nil, ErrShortPayload
	}

	pip := uint16(frame[cryptIdx])<<8 | uint16(frame[cryptIdx+1])
	body := frame[headerLen:]
	otcipher.New(cryptPID, pip).Block(body)

	if !crc16.Verify(body) {
		return nil, ErrBadCRC
	}

	length := frame[0]
	msg := &Message{Header: Header{MfrID: frame[1], ProductID: frame[2]}}

	if int(length) >= headerLen+3 {
		msg.SensorID = uint32(frame[5])<<16 | uint32(frame[6])<<8 | uint32(frame[7])
	}

	i := 8
	for i < int(length) && frame[i] != 0 {
		param := frame[i]
		write := param&writeFlag == writeFlag
		paramID := param &^ writeFlag
		i++
		if i >= int(length) {
			break
		}

		typeID := frame[i] &^ 0x0F
		vlen := int(frame[i] & 0x0F)
		i++

		rec := Record{
			Write:     write,
			ParamID:   paramID,
			ParamName: ParamName(paramID),
			Unit:      ParamUnit(paramID),
			TypeID:    typeID,
			TypeName:  TypeName(typeID),
			Length:    vlen,
		}

		if vlen != 0 && i+vlen <= len(frame) {
			raw := frame[i : i+vlen]
			rec.Raw = append([]byte(nil), raw...)
			i += vlen
			rec.Value = decodeValue(raw, typeID)
		}

		msg.Records = append(msg.Records, rec)
	}

	return msg, nil
}

// decodeValue interprets raw bytes according to typeID. FLOAT (0xF0) has
// no defined encoding upstream, so it decodes to nil rather than a value,
// matching the reference implementation's own unimplemented placeholder.
func decodeValue(raw []byte, typeID byte) interface{} {
	switch {
	case typeID <= TypeUintBP24:
		var v uint64
		for _, b := range raw {
			v = v<<8 | uint64(b)
		}
		if typeID == TypeUint {
			return int64(v)
		}
		return float64(v) / float64(uint64(1)<<uint(typeBits(typeID)))

	case typeID == TypeChar:
		return string(raw)

	case typeID >= TypeSint && typeID <= TypeSintBP24:
		var v uint64
		for _, b := range raw {
			v = v<<8 | uint64(b)
		}
		neg := raw[0]&0x80 == 0x80
		signed := int64(v)
		if neg {
			mask := uint64(1)<<uint(8*len(raw)) - 1
			signed = -int64((^v&mask)+1)
		}
		if typeID == TypeSint {
			return signed
		}
		return float64(signed) / float64(uint64(1)<<uint(typeBits(typeID)))

	case typeID == TypeFloat:
		return nil

	default:
		return nil
	}
}
