// Package protocol implements the framing used for telemetry sent over the
// soft UART. Frames follow the Klipper message block layout so that the
// same CRC16 and VLQ codecs are shared by firmware and host.
package protocol

// Version represents the softuart firmware version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 128 // Scratch buffer size, room for one frame plus overflow detection

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// MessageBlock represents one decoded frame
type MessageBlock struct {
	Length   uint8
	Sequence uint8
	Data     []byte
	CRC      uint16
}
