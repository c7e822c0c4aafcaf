// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package rfm69

// Register addresses and bit masks, named to match the RFM69/SX1231
// datasheet rather than any particular configuration.
const (
	RegFifo        = 0x00
	RegOpMode      = 0x01
	RegDataModul   = 0x02
	RegBitrateMsb  = 0x03
	RegBitrateLsb  = 0x04
	RegFdevMsb     = 0x05
	RegFdevLsb     = 0x06
	RegFrfMsb      = 0x07
	RegFrfMid      = 0x08
	RegFrfLsb      = 0x09
	RegAfcCtrl     = 0x0B
	RegVersion     = 0x10
	RegPaLevel     = 0x11
	RegLna         = 0x18
	RegRxBw        = 0x19
	RegAfcBw       = 0x1A
	RegRssiThresh  = 0x29
	RegPreambleMsb = 0x2C
	RegPreambleLsb = 0x2D
	RegSyncConfig  = 0x2E
	RegSyncValue1  = 0x2F
	RegSyncValue2  = 0x30
	RegPacketCfg1  = 0x37
	RegPayloadLen  = 0x38
	RegNodeAdrs    = 0x39
	RegFifoThresh  = 0x3C
	RegDioMapping1 = 0x25
	RegIrqFlags1   = 0x27
	RegIrqFlags2   = 0x28
)

// OpMode values.
const (
	ModeStandby  byte = 0x04
	ModeTransmit byte = 0x0C
	ModeReceive  byte = 0x10
)

// IRQFLAGS1 bits.
const (
	Irq1ModeReady byte = 1 << 7
	Irq1TxReady   byte = 1 << 5
)

// IRQFLAGS2 bits.
const (
	Irq2FifoFull     byte = 1 << 7
	Irq2FifoNotEmpty byte = 1 << 6
	Irq2FifoLevel    byte = 1 << 5
	Irq2FifoOverrun  byte = 1 << 4
	Irq2PacketSent   byte = 1 << 3
	Irq2PayloadReady byte = 1 << 2
	Irq2CrcOk        byte = 1 << 1
)

// Version is the expected content of RegVersion on a real RFM69/RFM69HCW.
const Version byte = 0x24

const writeBit byte = 0x80
