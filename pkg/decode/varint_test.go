package decode

import (
	"errors"
	"testing"
)

func TestReadVarint_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 300, 16383, 16384, 1<<21 - 1, 1 << 28, 0xffffffff}

	var buf []byte
	for _, v := range values {
		buf = AppendVarint(buf, v)
	}

	offset := 0
	for i, want := range values {
		got, err := ReadVarint(buf, &offset)
		if err != nil {
			t.Fatalf("value %d: ReadVarint failed: %v", i, err)
		}
		if got != want {
			t.Errorf("value %d: expected %d, got %d", i, want, got)
		}
	}
	if offset != len(buf) {
		t.Errorf("expected offset %d after reading all values, got %d", len(buf), offset)
	}
}

func TestReadVarint_SingleByte(t *testing.T) {
	offset := 0
	v, err := ReadVarint([]byte{0x05}, &offset)
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != 5 {
		t.Errorf("expected 5, got %d", v)
	}
	if offset != 1 {
		t.Errorf("expected offset 1, got %d", offset)
	}
}

func TestReadVarint_MultiByte(t *testing.T) {
	// 300 = 0b100101100 -> 0xAC 0x02
	offset := 0
	v, err := ReadVarint([]byte{0xac, 0x02}, &offset)
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != 300 {
		t.Errorf("expected 300, got %d", v)
	}
	if offset != 2 {
		t.Errorf("expected offset 2, got %d", offset)
	}
}

func TestReadVarint_Empty(t *testing.T) {
	offset := 0
	_, err := ReadVarint(nil, &offset)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadVarint_Truncated(t *testing.T) {
	// Continuation bit set with no following byte.
	offset := 0
	_, err := ReadVarint([]byte{0x80}, &offset)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadVarint_OffsetAdvances(t *testing.T) {
	buf := []byte{0x01, 0xac, 0x02, 0x7f}
	offset := 1

	v, err := ReadVarint(buf, &offset)
	if err != nil {
		t.Fatalf("ReadVarint failed: %v", err)
	}
	if v != 300 {
		t.Errorf("expected 300, got %d", v)
	}
	if offset != 3 {
		t.Errorf("expected offset 3, got %d", offset)
	}
}
