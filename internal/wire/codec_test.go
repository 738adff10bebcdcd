package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }
func u64Ptr(v uint64) *uint64 { return &v }

func TestMessageRoundTrip(t *testing.T) {
	cases := []Message{
		HandshakeRequest{
			AuthSessionTicket:   []byte("gamer"),
			MatchmakingPassword: nil,
			LevelName:           "level1",
			Position:            Vector2{X: 1.5, Y: -2.25},
			Version:             ProtocolVersion,
		},
		HandshakeRequest{
			AuthSessionTicket:   []byte{0x01, 0x02, 0x03},
			MatchmakingPassword: strPtr("secret"),
			LevelName:           "game",
			Position:            Vector2{},
			Version:             0,
		},
		HandshakeResponse{Success: true, ErrorMessage: nil},
		HandshakeResponse{Success: false, ErrorMessage: strPtr("Your version is outdated")},
		PositionUpdate{Position: Vector2{X: 100, Y: -720}},
		SetMatchmakingPassword{Password: nil},
		SetMatchmakingPassword{Password: strPtr("")},
		InformNearbyClients{ClientIDs: []uint64{1, 2, 3}},
		InformNearbyClients{ClientIDs: nil},
		IncomingChatMessage{Channel: ChannelGlobal, Message: "hello"},
		IncomingChatMessage{Channel: ChannelGroup, Message: ""},
		OutgoingChatMessage{
			Channel:    ChannelGlobal,
			SenderID:   u64Ptr(76561197960287930),
			SenderName: strPtr("Alice"),
			Message:    "hi",
		},
		OutgoingChatMessage{Channel: ChannelGroup, SenderID: nil, SenderName: nil, Message: "welcome"},
		ServerStatusUpdate{TotalPlayers: 1, GroupPlayers: 1},
		ServerStatusUpdate{TotalPlayers: 0, GroupPlayers: 0},
	}

	for _, m := range cases {
		frame, err := EncodeFrame(m)
		if err != nil {
			t.Fatalf("EncodeFrame(%#v): %v", m, err)
		}

		decoded, consumed, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("DecodeFrame(%#v): %v", m, err)
		}
		if consumed != len(frame) {
			t.Fatalf("DecodeFrame(%#v): consumed %d, want %d", m, consumed, len(frame))
		}
		if !reflect.DeepEqual(decoded, m) {
			t.Fatalf("roundtrip mismatch: put %#v, got %#v", m, decoded)
		}
	}
}

func TestDecodeFrameShortRead(t *testing.T) {
	frame, err := EncodeFrame(PositionUpdate{Position: Vector2{X: 1, Y: 2}})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(frame); i++ {
		_, _, err := DecodeFrame(frame[:i])
		if err != ErrShortRead {
			t.Fatalf("DecodeFrame(frame[:%d]): got %v, want ErrShortRead", i, err)
		}
	}
}

func TestDecodeFrameZeroLength(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0})
	if _, ok := err.(*FramingError); !ok {
		t.Fatalf("DecodeFrame(zero length): got %v, want *FramingError", err)
	}
}

func TestDecodeFrameOversizedPayload(t *testing.T) {
	buf := putVarint(nil, MaxPayloadBytes+1)
	_, _, err := DecodeFrame(buf)
	if _, ok := err.(*FramingError); !ok {
		t.Fatalf("DecodeFrame(oversized): got %v, want *FramingError", err)
	}
}

func TestDecodeFrameDoesNotConsumeOnShortRead(t *testing.T) {
	full, err := EncodeFrame(ServerStatusUpdate{TotalPlayers: 5, GroupPlayers: 2})
	if err != nil {
		t.Fatal(err)
	}

	partial := append([]byte(nil), full[:len(full)-1]...)
	_, consumed, err := DecodeFrame(partial)
	if err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
	if consumed != 0 {
		t.Fatalf("short read must report 0 consumed, got %d", consumed)
	}

	// Appending the missing byte must now decode cleanly.
	complete := append(partial, full[len(full)-1])
	msg, consumed, err := DecodeFrame(complete)
	if err != nil {
		t.Fatalf("DecodeFrame after completing frame: %v", err)
	}
	if consumed != len(complete) {
		t.Fatalf("consumed %d, want %d", consumed, len(complete))
	}
	if !reflect.DeepEqual(msg, ServerStatusUpdate{TotalPlayers: 5, GroupPlayers: 2}) {
		t.Fatalf("unexpected message: %#v", msg)
	}
}

func TestMultipleFramesBackToBack(t *testing.T) {
	var buf bytes.Buffer
	msgs := []Message{
		PositionUpdate{Position: Vector2{X: 1, Y: 1}},
		PositionUpdate{Position: Vector2{X: 2, Y: 2}},
		PositionUpdate{Position: Vector2{X: 3, Y: 3}},
	}
	for _, m := range msgs {
		frame, err := EncodeFrame(m)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(frame)
	}

	remaining := buf.Bytes()
	for _, want := range msgs {
		got, consumed, err := DecodeFrame(remaining)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
		remaining = remaining[consumed:]
	}
	if len(remaining) != 0 {
		t.Fatalf("leftover bytes: %d", len(remaining))
	}
}
