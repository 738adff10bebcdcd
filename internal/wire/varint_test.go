package wire

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 250, 251, 252, 253, 254, 255,
		256, 1000, 0xFFFF, 0x10000, 0xFFFFFFFF,
		0x100000000, 1 << 40, 1<<64 - 1,
	}

	for _, v := range values {
		buf := putVarint(nil, v)
		got, n, err := getVarint(buf)
		if err != nil {
			t.Fatalf("getVarint(%d): %v", v, err)
		}
		if n != len(buf) {
			t.Fatalf("getVarint(%d): consumed %d, want %d", v, n, len(buf))
		}
		if got != v {
			t.Fatalf("roundtrip mismatch: put %d, got %d", v, got)
		}
	}
}

func TestVarintEncodingSizes(t *testing.T) {
	cases := []struct {
		v    uint64
		size int
	}{
		{0, 1},
		{250, 1},
		{251, 3},
		{0xFFFF, 3},
		{0x10000, 5},
		{0xFFFFFFFF, 5},
		{0x100000000, 9},
	}

	for _, c := range cases {
		buf := putVarint(nil, c.v)
		if len(buf) != c.size {
			t.Errorf("putVarint(%d): got %d bytes, want %d", c.v, len(buf), c.size)
		}
	}
}

func TestGetVarintShortRead(t *testing.T) {
	cases := [][]byte{
		{},
		{varintU16Flag},
		{varintU16Flag, 0x01},
		{varintU32Flag, 0x01, 0x02},
		{varintU64Flag, 0x01, 0x02, 0x03},
	}

	for _, buf := range cases {
		if _, _, err := getVarint(buf); err != ErrShortRead {
			t.Errorf("getVarint(%v): got %v, want ErrShortRead", buf, err)
		}
	}
}

func TestGetVarintInvalidDiscriminant(t *testing.T) {
	for _, d := range []byte{254, 255} {
		_, _, err := getVarint([]byte{d, 0, 0})
		fe, ok := err.(*FramingError)
		if !ok || fe == nil {
			t.Errorf("getVarint with discriminant %d: got %v, want *FramingError", d, err)
		}
	}
}
