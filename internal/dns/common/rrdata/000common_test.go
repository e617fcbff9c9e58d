package rrdata

import (
	"errors"
	"testing"
)

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFixedWidthRoundTrip(t *testing.T) {
	b := WriteU16(nil, 0xABCD)
	b = WriteU32(b, 0xDEADBEEF)
	if !equalBytes(b, []byte{0xAB, 0xCD, 0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("unexpected encoding: %x", b)
	}
	if got := ReadU16(b, 0); got != 0xABCD {
		t.Errorf("ReadU16 = %#x", got)
	}
	if got := ReadU32(b, 2); got != 0xDEADBEEF {
		t.Errorf("ReadU32 = %#x", got)
	}
}

func TestReadU16_OutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on out-of-range read")
		}
	}()
	ReadU16([]byte{1}, 0)
}

func TestReadBits(t *testing.T) {
	tests := []struct {
		name    string
		value   uint32
		offset  int
		length  int
		want    uint32
		wantErr bool
	}{
		{"rcode nibble", 0x8183, 0, 4, 3, false},
		{"qr bit", 0x8183, 15, 1, 1, false},
		{"opcode", 0x2800, 11, 4, 5, false},
		{"z field", 0x0070, 4, 3, 7, false},
		{"zero length", 0xFFFFFFFF, 5, 0, 0, false},
		{"full width", 0xCAFEBABE, 0, 32, 0xCAFEBABE, false},
		{"top bit", 0x80000000, 31, 1, 1, false},
		{"overflow", 1, 30, 3, 0, true},
		{"negative offset", 1, -1, 2, 0, true},
		{"negative length", 1, 0, -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadBits(tt.value, tt.offset, tt.length)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadBits(%#x, %d, %d) = %#x, want %#x", tt.value, tt.offset, tt.length, got, tt.want)
			}
		})
	}
}
