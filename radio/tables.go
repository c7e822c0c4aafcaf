// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package radio

import "github.com/thinking-binaries/pico-energenie/rfm69"

// Config identifies which register table is currently loaded.
type Config int

const (
	// OOK drives legacy HS1527-based sockets (Energenie ENER002 and similar).
	OOK Config = iota
	// FSK drives MiHome sockets speaking OpenThings.
	FSK
)

// paBoost10dBm is PA_BOOST on PA1, 10% duty / 25kHz bandwidth, the limit
// used throughout for RFM69HCW boards. See TI swra048 table 9 and the
// RFM69HCW datasheet's PaLevel description.
const paBoost10dBm = 0b010_1_1100

// ookTable configures on-off keying for legacy 433MHz sockets: no
// frequency deviation, 433.92MHz, payload-only framing (no preamble, no
// sync word, variable length).
var ookTable = []rfm69.RegValue{
	{rfm69.RegPaLevel, paBoost10dBm},
	{rfm69.RegAfcCtrl, 0x20},
	{rfm69.RegLna, 0x00},
	{rfm69.RegRssiThresh, 0xF0},
	{rfm69.RegDioMapping1, 0x04},
	{rfm69.RegDataModul, 0x08}, // OOK
	{rfm69.RegFdevMsb, 0x00},
	{rfm69.RegFdevLsb, 0x00},
	{rfm69.RegFrfMsb, 0x6C}, // 433.92MHz
	{rfm69.RegFrfMid, 0x7A},
	{rfm69.RegFrfLsb, 0xE1},
	{rfm69.RegRxBw, 0x41}, // 120kHz
	{rfm69.RegBitrateMsb, 0x1A},
	{rfm69.RegBitrateLsb, 0x00},
	{rfm69.RegPreambleMsb, 0x00},
	{rfm69.RegPreambleLsb, 0x00},
	{rfm69.RegSyncConfig, 0x00}, // sync disabled
	{rfm69.RegPacketCfg1, 0x80}, // variable length, no manchester
	{rfm69.RegPayloadLen, 0x00},
}

// fskTable configures FSK/Manchester for MiHome OpenThings traffic:
// 30kHz deviation, 434.3MHz, two-byte 0x2DD4 sync word, variable length
// with Manchester coding.
var fskTable = []rfm69.RegValue{
	{rfm69.RegPaLevel, paBoost10dBm},
	{rfm69.RegDataModul, 0x00}, // FSK
	{rfm69.RegAfcCtrl, 0x00},
	{rfm69.RegLna, 0x08}, // 50 ohm input
	{rfm69.RegFdevMsb, 0x01},
	{rfm69.RegFdevLsb, 0xEC}, // 30kHz
	{rfm69.RegFrfMsb, 0x6C},  // 434.3MHz
	{rfm69.RegFrfMid, 0x93},
	{rfm69.RegFrfLsb, 0x33},
	{rfm69.RegRxBw, 0x43}, // 60kHz
	{rfm69.RegBitrateMsb, 0x1A},
	{rfm69.RegBitrateLsb, 0x0B}, // 4800bps
	{rfm69.RegSyncConfig, 0x88}, // 2-byte sync word
	{rfm69.RegSyncValue1, 0x2D},
	{rfm69.RegSyncValue2, 0xD4},
	{rfm69.RegPacketCfg1, 0xA0}, // variable length, manchester coding
	{rfm69.RegPayloadLen, MTU},
	{rfm69.RegNodeAdrs, 0x06},
}

// MTU is the largest frame the radio will accept on receive, matching the
// FSK table's PayloadLen.
const MTU = 66
