package packet

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestReader_ReadByte(t *testing.T) {
	data := []byte{0x42}
	r := NewReader(data)

	val, err := r.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte failed: %v", err)
	}
	if val != 0x42 {
		t.Errorf("expected 0x42, got 0x%02X", val)
	}

	if _, err := r.ReadByte(); err == nil {
		t.Error("expected error reading past end")
	}
}

func TestReader_ReadInt32(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 0x12345678)
	r := NewReader(data)

	val, err := r.ReadInt32()
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	if val != 0x12345678 {
		t.Errorf("expected 0x12345678, got 0x%08X", val)
	}
}

func TestReader_ReadInt32_Negative(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 0xFFFFFFFF)
	r := NewReader(data)

	val, err := r.ReadInt32()
	if err != nil {
		t.Fatalf("ReadInt32 failed: %v", err)
	}
	if val != -1 {
		t.Errorf("expected -1, got %d", val)
	}
}

func TestReader_ReadHeader(t *testing.T) {
	// id=4 (ping), pad, len=0
	data := []byte{0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	r := NewReader(data)

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if h.ID != ClientPing {
		t.Errorf("expected ping id, got %d", h.ID)
	}
	if h.Length != 0 {
		t.Errorf("expected length 0, got %d", h.Length)
	}
	if r.Remaining() != 0 {
		t.Errorf("expected no remaining bytes, got %d", r.Remaining())
	}
}

func TestReader_ReadHeader_Truncated(t *testing.T) {
	r := NewReader([]byte{0x04, 0x00, 0x00})
	if _, err := r.ReadHeader(); err == nil {
		t.Error("expected error on truncated header")
	}
}

func TestReader_ReadString(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
		wantErr  bool
	}{
		{
			name:     "empty marker",
			data:     []byte{0x00},
			expected: "",
		},
		{
			name:     "short string",
			data:     []byte{0x0b, 0x05, 'h', 'e', 'l', 'l', 'o'},
			expected: "hello",
		},
		{
			name:    "bad marker",
			data:    []byte{0x07, 0x01, 'x'},
			wantErr: true,
		},
		{
			name:    "length past end",
			data:    []byte{0x0b, 0x05, 'h', 'i'},
			wantErr: true,
		},
		{
			name:    "no marker",
			data:    []byte{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			s, err := r.ReadString()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadString failed: %v", err)
			}
			if s != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, s)
			}
		})
	}
}

func TestReader_ReadString_MultiByteLength(t *testing.T) {
	// 200 bytes: ULEB128 length is 0xC8 0x01.
	payload := strings.Repeat("a", 200)
	data := append([]byte{0x0b, 0xC8, 0x01}, payload...)
	r := NewReader(data)

	s, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if s != payload {
		t.Errorf("expected %d-byte string, got %d bytes", len(payload), len(s))
	}
}

func TestReader_ReadString_LengthLimit(t *testing.T) {
	// ULEB128 for 1<<20, far above MaxStringLength.
	data := []byte{0x0b, 0x80, 0x80, 0x40}
	r := NewReader(data)

	if _, err := r.ReadString(); err == nil {
		t.Error("expected error on oversized length prefix")
	}
}

func TestReader_ReadInt32List16(t *testing.T) {
	w := NewWriter(64)
	w.WriteInt32List16([]int32{1, -2, 300})

	r := NewReader(w.Bytes())
	vals, err := r.ReadInt32List16()
	if err != nil {
		t.Fatalf("ReadInt32List16 failed: %v", err)
	}
	if len(vals) != 3 || vals[0] != 1 || vals[1] != -2 || vals[2] != 300 {
		t.Errorf("unexpected values: %v", vals)
	}
}

func TestReader_ReadBytes_ZeroCopy(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	r := NewReader(data)

	b, err := r.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	data[0] = 9
	if b[0] != 9 {
		t.Error("expected subslice to alias the underlying data")
	}
	if r.Position() != 2 {
		t.Errorf("expected position 2, got %d", r.Position())
	}
}

func TestReader_Skip(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if r.Remaining() != 1 {
		t.Errorf("expected 1 remaining, got %d", r.Remaining())
	}
	if err := r.Skip(2); err == nil {
		t.Error("expected error skipping past end")
	}
}
