package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxPayloadBytes is the hard per-message limit enforced at both encode and
// decode time.
const MaxPayloadBytes = 4096

// ProtocolVersion is the single integer constant a HandshakeRequest's
// Version field must match exactly.
const ProtocolVersion uint32 = 2

// bodyWriter accumulates a message body using the wire's shared primitives:
// varints for every integer width, fixed little-endian for floats.
type bodyWriter struct {
	buf []byte
}

func (w *bodyWriter) putVarint(v uint64) {
	w.buf = putVarint(w.buf, v)
}

func (w *bodyWriter) putBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *bodyWriter) putF32(f float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(f))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *bodyWriter) putBytes(b []byte) {
	w.putVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *bodyWriter) putString(s string) {
	w.putBytes([]byte(s))
}

func (w *bodyWriter) putOptionString(s *string) {
	if s == nil {
		w.buf = append(w.buf, 0)
		return
	}
	w.buf = append(w.buf, 1)
	w.putString(*s)
}

func (w *bodyWriter) putOptionU64(v *uint64) {
	if v == nil {
		w.buf = append(w.buf, 0)
		return
	}
	w.buf = append(w.buf, 1)
	w.putVarint(*v)
}

// bodyReader walks a decoded message body, mirroring bodyWriter field for
// field. Every read can fail with a FramingError (truncated/malformed
// body); there is no short-read concept here because the caller already
// sliced out exactly one frame's payload before reaching us.
type bodyReader struct {
	buf []byte
	pos int
}

func (r *bodyReader) remaining() []byte {
	return r.buf[r.pos:]
}

func (r *bodyReader) getVarint() (uint64, error) {
	v, n, err := getVarint(r.remaining())
	if err != nil {
		return 0, &FramingError{Reason: fmt.Sprintf("truncated varint: %v", err)}
	}
	r.pos += n
	return v, nil
}

func (r *bodyReader) getBool() (bool, error) {
	if len(r.remaining()) < 1 {
		return false, &FramingError{Reason: "truncated bool"}
	}
	b := r.buf[r.pos]
	r.pos++
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &FramingError{Reason: fmt.Sprintf("invalid bool byte %d", b)}
	}
}

func (r *bodyReader) getF32() (float32, error) {
	if len(r.remaining()) < 4 {
		return 0, &FramingError{Reason: "truncated f32"}
	}
	bits := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return math.Float32frombits(bits), nil
}

func (r *bodyReader) getBytes() ([]byte, error) {
	n, err := r.getVarint()
	if err != nil {
		return nil, err
	}
	if uint64(len(r.remaining())) < n {
		return nil, &FramingError{Reason: "truncated byte sequence"}
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *bodyReader) getString() (string, error) {
	b, err := r.getBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *bodyReader) getOptionString() (*string, error) {
	present, err := r.getBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	s, err := r.getString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *bodyReader) getOptionU64() (*uint64, error) {
	present, err := r.getBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := r.getVarint()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *bodyReader) getVector2() (Vector2, error) {
	x, err := r.getF32()
	if err != nil {
		return Vector2{}, err
	}
	y, err := r.getF32()
	if err != nil {
		return Vector2{}, err
	}
	return Vector2{X: x, Y: y}, nil
}

func (w *bodyWriter) putVector2(v Vector2) {
	w.putF32(v.X)
	w.putF32(v.Y)
}

// EncodeBody serialises a Message body (discriminant + fields), without the
// outer frame length prefix.
func EncodeBody(m Message) ([]byte, error) {
	w := &bodyWriter{}
	w.putVarint(m.messageTag())

	switch msg := m.(type) {
	case HandshakeRequest:
		w.putBytes(msg.AuthSessionTicket)
		w.putOptionString(msg.MatchmakingPassword)
		w.putString(msg.LevelName)
		w.putVector2(msg.Position)
		w.putVarint(uint64(msg.Version))
	case HandshakeResponse:
		w.putBool(msg.Success)
		w.putOptionString(msg.ErrorMessage)
	case PositionUpdate:
		w.putVector2(msg.Position)
	case SetMatchmakingPassword:
		w.putOptionString(msg.Password)
	case InformNearbyClients:
		w.putVarint(uint64(len(msg.ClientIDs)))
		for _, id := range msg.ClientIDs {
			w.putVarint(id)
		}
	case IncomingChatMessage:
		w.putVarint(uint64(msg.Channel))
		w.putString(msg.Message)
	case OutgoingChatMessage:
		w.putVarint(uint64(msg.Channel))
		w.putOptionU64(msg.SenderID)
		w.putOptionString(msg.SenderName)
		w.putString(msg.Message)
	case ServerStatusUpdate:
		w.putVarint(uint64(msg.TotalPlayers))
		w.putVarint(uint64(msg.GroupPlayers))
	default:
		return nil, &FramingError{Reason: fmt.Sprintf("unknown message type %T", m)}
	}

	if len(w.buf) > MaxPayloadBytes {
		return nil, &FramingError{Reason: fmt.Sprintf("encoded body %d bytes exceeds limit %d", len(w.buf), MaxPayloadBytes)}
	}

	return w.buf, nil
}

// DecodeBody deserialises exactly one message from a body byte slice (the
// bytes a frame's length prefix already delimited).
func DecodeBody(body []byte) (Message, error) {
	r := &bodyReader{buf: body}

	tag, err := r.getVarint()
	if err != nil {
		return nil, err
	}

	var msg Message
	switch tag {
	case 0:
		ticket, err := r.getBytes()
		if err != nil {
			return nil, err
		}
		password, err := r.getOptionString()
		if err != nil {
			return nil, err
		}
		level, err := r.getString()
		if err != nil {
			return nil, err
		}
		pos, err := r.getVector2()
		if err != nil {
			return nil, err
		}
		version, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		msg = HandshakeRequest{
			AuthSessionTicket:   ticket,
			MatchmakingPassword: password,
			LevelName:           level,
			Position:            pos,
			Version:             uint32(version),
		}
	case 1:
		success, err := r.getBool()
		if err != nil {
			return nil, err
		}
		errMsg, err := r.getOptionString()
		if err != nil {
			return nil, err
		}
		msg = HandshakeResponse{Success: success, ErrorMessage: errMsg}
	case 2:
		pos, err := r.getVector2()
		if err != nil {
			return nil, err
		}
		msg = PositionUpdate{Position: pos}
	case 3:
		password, err := r.getOptionString()
		if err != nil {
			return nil, err
		}
		msg = SetMatchmakingPassword{Password: password}
	case 4:
		count, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		var ids []uint64
		for i := uint64(0); i < count; i++ {
			id, err := r.getVarint()
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		msg = InformNearbyClients{ClientIDs: ids}
	case 5:
		channel, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		text, err := r.getString()
		if err != nil {
			return nil, err
		}
		msg = IncomingChatMessage{Channel: Channel(channel), Message: text}
	case 6:
		channel, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		senderID, err := r.getOptionU64()
		if err != nil {
			return nil, err
		}
		senderName, err := r.getOptionString()
		if err != nil {
			return nil, err
		}
		text, err := r.getString()
		if err != nil {
			return nil, err
		}
		msg = OutgoingChatMessage{
			Channel:    Channel(channel),
			SenderID:   senderID,
			SenderName: senderName,
			Message:    text,
		}
	case 7:
		total, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		group, err := r.getVarint()
		if err != nil {
			return nil, err
		}
		msg = ServerStatusUpdate{TotalPlayers: uint32(total), GroupPlayers: uint32(group)}
	default:
		return nil, &FramingError{Reason: fmt.Sprintf("unknown message discriminant %d", tag)}
	}

	return msg, nil
}

// EncodeFrame serialises a message body and prepends its varint length
// prefix, producing exactly the bytes that go on the wire.
func EncodeFrame(m Message) ([]byte, error) {
	body, err := EncodeBody(m)
	if err != nil {
		return nil, err
	}

	frame := putVarint(nil, uint64(len(body)))
	return append(frame, body...), nil
}

// DecodeFrame attempts to decode one frame from the front of src. It
// returns the message, the number of bytes consumed, and an error.
// ErrShortRead means src does not yet hold a complete frame and must not be
// advanced; any other error is a FramingError and is fatal to the session.
func DecodeFrame(src []byte) (Message, int, error) {
	length, prefixLen, err := getVarint(src)
	if err != nil {
		return nil, 0, err
	}

	if length == 0 {
		return nil, 0, &FramingError{Reason: "zero-length frame"}
	}
	if length > MaxPayloadBytes {
		return nil, 0, &FramingError{Reason: fmt.Sprintf("frame length %d exceeds limit %d", length, MaxPayloadBytes)}
	}

	total := prefixLen + int(length)
	if len(src) < total {
		return nil, 0, ErrShortRead
	}

	body := src[prefixLen:total]
	msg, err := DecodeBody(body)
	if err != nil {
		return nil, 0, err
	}

	return msg, total, nil
}
