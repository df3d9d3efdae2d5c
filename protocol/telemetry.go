package protocol

import "errors"

// Telemetry message IDs, the first VLQ of every frame body
const (
	MsgHello       = 1 // version=%s baud=%u
	MsgAccelSample = 2 // seq=%u x=%i y=%i z=%i
	MsgText        = 3 // text=%s
)

var ErrUnknownMessage = errors.New("unknown telemetry message")

// Hello is sent once at boot
type Hello struct {
	Version string
	Baud    uint32
}

// AccelSample is one accelerometer reading in micro-g
type AccelSample struct {
	Seq     uint32
	X, Y, Z int32
}

// Message is a decoded telemetry message; exactly one field is set
type Message struct {
	ID     uint32
	Hello  *Hello
	Sample *AccelSample
	Text   string
}

// EncodeHello writes a hello message body
func EncodeHello(output OutputBuffer, h Hello) {
	EncodeVLQUint(output, MsgHello)
	EncodeVLQString(output, h.Version)
	EncodeVLQUint(output, h.Baud)
}

// EncodeAccelSample writes an accelerometer sample body
func EncodeAccelSample(output OutputBuffer, s AccelSample) {
	EncodeVLQUint(output, MsgAccelSample)
	EncodeVLQUint(output, s.Seq)
	EncodeVLQInt(output, s.X)
	EncodeVLQInt(output, s.Y)
	EncodeVLQInt(output, s.Z)
}

// EncodeText writes a free-form text message body
func EncodeText(output OutputBuffer, text string) {
	EncodeVLQUint(output, MsgText)
	EncodeVLQString(output, text)
}

// DecodeMessages decodes every message contained in a frame body
func DecodeMessages(data []byte) ([]Message, error) {
	var msgs []Message
	for len(data) > 0 {
		id, err := DecodeVLQUint(&data)
		if err != nil {
			return msgs, err
		}

		msg := Message{ID: id}
		switch id {
		case MsgHello:
			version, err := DecodeVLQString(&data)
			if err != nil {
				return msgs, err
			}
			baud, err := DecodeVLQUint(&data)
			if err != nil {
				return msgs, err
			}
			msg.Hello = &Hello{Version: version, Baud: baud}

		case MsgAccelSample:
			var s AccelSample
			if s.Seq, err = DecodeVLQUint(&data); err != nil {
				return msgs, err
			}
			if s.X, err = DecodeVLQInt(&data); err != nil {
				return msgs, err
			}
			if s.Y, err = DecodeVLQInt(&data); err != nil {
				return msgs, err
			}
			if s.Z, err = DecodeVLQInt(&data); err != nil {
				return msgs, err
			}
			msg.Sample = &s

		case MsgText:
			text, err := DecodeVLQString(&data)
			if err != nil {
				return msgs, err
			}
			msg.Text = text

		default:
			return msgs, ErrUnknownMessage
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
