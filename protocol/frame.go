package protocol

import "errors"

var ErrFrameTooLarge = errors.New("frame payload exceeds MessageLengthMax")

// FrameHandler is called for every valid frame. Data aliases the parser
// input and is only valid for the duration of the call.
type FrameHandler func(block *MessageBlock)

// ParserStats counts what a FrameParser has seen
type ParserStats struct {
	Frames       uint32 // Valid frames delivered
	CRCErrors    uint32 // Frames dropped for a bad checksum
	SyncErrors   uint32 // Times synchronization was lost
	SequenceGaps uint32 // Frames whose sequence did not follow the previous one
	Discarded    uint32 // Bytes skipped while hunting for a sync byte
}

// EncodeFrame writes one frame to output. The payload callback writes the
// frame body; length, CRC and sync are filled in afterwards. On error
// output is left as it was before the call.
func EncodeFrame(output OutputBuffer, seq uint8, frameData func(output OutputBuffer)) error {
	cursor := output.CurPosition()

	output.Output([]byte{0, MessageDest | (seq & MessageSeqMask)})
	if frameData != nil {
		frameData(output)
	}

	body := len(output.DataSince(cursor))
	if body+MessageTrailerSize > MessageLengthMax {
		output.Truncate(cursor)
		return ErrFrameTooLarge
	}
	output.Update(cursor, uint8(body+MessageTrailerSize))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}

// FrameParser extracts frames from a byte stream that may start mid-frame
// or contain corrupted bytes
type FrameParser struct {
	synchronized bool
	haveSeq      bool
	lastSeq      uint8
	handler      FrameHandler
	stats        ParserStats
}

// NewFrameParser creates a parser that assumes it starts on a frame boundary
func NewFrameParser(handler FrameHandler) *FrameParser {
	return &FrameParser{
		synchronized: true,
		handler:      handler,
	}
}

// Receive processes available input, consuming every byte that was either
// part of a complete frame or discarded. Incomplete frames stay buffered.
func (p *FrameParser) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !p.synchronized {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				p.stats.Discarded += uint32(syncPos + 1)
				data = data[syncPos+1:]
				p.synchronized = true
			} else {
				p.stats.Discarded += uint32(len(data))
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			p.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			p.desync()
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			p.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		actualCRC := CRC16(data[:msgLen-MessageTrailerSize])
		if frameCRC != actualCRC {
			p.stats.CRCErrors++
			p.desync()
			continue
		}

		block := MessageBlock{
			Length:   uint8(msgLen),
			Sequence: seq & MessageSeqMask,
			Data:     data[MessageHeaderSize : msgLen-MessageTrailerSize],
			CRC:      frameCRC,
		}
		data = data[msgLen:]

		if p.haveSeq && block.Sequence != (p.lastSeq+1)&MessageSeqMask {
			p.stats.SequenceGaps++
		}
		p.haveSeq = true
		p.lastSeq = block.Sequence
		p.stats.Frames++

		if p.handler != nil {
			p.handler(&block)
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// Stats returns the parser counters
func (p *FrameParser) Stats() ParserStats {
	return p.stats
}

// Synchronized reports whether the parser is currently aligned to frames
func (p *FrameParser) Synchronized() bool {
	return p.synchronized
}

func (p *FrameParser) desync() {
	p.synchronized = false
	p.stats.SyncErrors++
}
