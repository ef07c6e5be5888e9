package packet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the size of a packet frame header: id (u16), pad (u8),
// payload length (u32), all little-endian.
const HeaderSize = 7

// MaxStringLength bounds ULEB128 string lengths so a corrupt prefix
// cannot ask for gigabytes.
const MaxStringLength = 1 << 15

// Reader provides methods for reading packet data from a request body.
// Uses Little-Endian byte order for all multi-byte values. The reader
// borrows the underlying slice; returned sub-slices stay valid only as
// long as the request body does.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new packet reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
		pos:  0,
	}
}

// Header is a decoded packet frame header.
type Header struct {
	ID     ClientPacketID
	Length uint32
}

// ReadHeader reads the next frame header. The pad byte is ignored.
func (r *Reader) ReadHeader() (Header, error) {
	if r.pos+HeaderSize > len(r.data) {
		return Header{}, fmt.Errorf("ReadHeader: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	h := Header{
		ID:     ClientPacketID(binary.LittleEndian.Uint16(r.data[r.pos:])),
		Length: binary.LittleEndian.Uint32(r.data[r.pos+3:]),
	}
	r.pos += HeaderSize
	return h, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ReadByte: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBool reads a single byte as a boolean.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadUint16 reads a uint16 (2 bytes, LE).
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("ReadUint16: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return val, nil
}

// ReadInt16 reads an int16 (2 bytes, LE).
func (r *Reader) ReadInt16() (int16, error) {
	val, err := r.ReadUint16()
	return int16(val), err
}

// ReadInt32 reads an int32 (4 bytes, LE).
func (r *Reader) ReadInt32() (int32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadInt32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return val, nil
}

// ReadUint32 reads a uint32 (4 bytes, LE).
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadUint32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return val, nil
}

// ReadInt64 reads an int64 (8 bytes, LE).
func (r *Reader) ReadInt64() (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("ReadInt64: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := int64(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return val, nil
}

// ReadFloat32 reads a float32 (4 bytes, LE).
func (r *Reader) ReadFloat32() (float32, error) {
	bits, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadString reads an osu! string: a 0x00 marker for the empty string, or
// a 0x0b marker followed by a ULEB128 byte length and UTF-8 data.
func (r *Reader) ReadString() (string, error) {
	marker, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("ReadString: %w", err)
	}

	switch marker {
	case 0x00:
		return "", nil
	case 0x0b:
	default:
		return "", fmt.Errorf("ReadString: bad marker 0x%02x (pos=%d)", marker, r.pos-1)
	}

	length, err := r.readULEB128()
	if err != nil {
		return "", fmt.Errorf("ReadString: %w", err)
	}
	if length > MaxStringLength {
		return "", fmt.Errorf("ReadString: length %d exceeds limit", length)
	}
	if r.pos+int(length) > len(r.data) {
		return "", fmt.Errorf("ReadString: not enough data (pos=%d, need=%d, len=%d)", r.pos, length, len(r.data))
	}

	s := string(r.data[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s, nil
}

// readULEB128 decodes an unsigned LEB128 value.
func (r *Reader) readULEB128() (uint64, error) {
	var val uint64
	var shift uint
	for {
		if shift > 35 {
			return 0, fmt.Errorf("readULEB128: value too long")
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		val |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return val, nil
		}
		shift += 7
	}
}

// ReadInt32List16 reads a u16 count followed by that many int32 values.
func (r *Reader) ReadInt32List16() ([]int32, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("ReadInt32List16: %w", err)
	}
	if r.pos+int(count)*4 > len(r.data) {
		return nil, fmt.Errorf("ReadInt32List16: not enough data (pos=%d, count=%d, len=%d)", r.pos, count, len(r.data))
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
		r.pos += 4
	}
	return out, nil
}

// ReadBytes reads n bytes as a subslice of the underlying data (zero-copy).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("ReadBytes: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without reading.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("Skip: not enough data (pos=%d, skip=%d, len=%d)", r.pos, n, len(r.data))
	}
	r.pos += n
	return nil
}

// SeekTo moves the cursor to an absolute position.
func (r *Reader) SeekTo(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("SeekTo: position %d out of range (len=%d)", pos, len(r.data))
	}
	r.pos = pos
	return nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}
