package packet

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
)

// Writer provides methods for writing packet data.
// Uses Little-Endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
	// Offset of the currently open frame header, -1 when none.
	frameStart int
}

// writerPool reduces allocations by reusing Writers.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{
			buf:        bytes.NewBuffer(make([]byte, 0, 512)),
			frameStart: -1,
		}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool for reuse.
// Do not use the Writer after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a new packet writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{
		buf:        bytes.NewBuffer(make([]byte, 0, capacity)),
		frameStart: -1,
	}
}

// BeginFrame writes a frame header for id with a zero length placeholder.
// EndFrame patches the length once the payload is written.
func (w *Writer) BeginFrame(id ServerPacketID) {
	w.frameStart = w.buf.Len()
	w.buf.WriteByte(byte(id))
	w.buf.WriteByte(byte(id >> 8))
	w.buf.WriteByte(0) // pad
	w.buf.Write([]byte{0, 0, 0, 0})
}

// EndFrame patches the open frame's payload length.
func (w *Writer) EndFrame() {
	payloadLen := w.buf.Len() - w.frameStart - HeaderSize
	binary.LittleEndian.PutUint32(w.buf.Bytes()[w.frameStart+3:], uint32(payloadLen))
	w.frameStart = -1
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteBool writes a boolean as a single byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteUint16 writes a uint16 (2 bytes, LE).
func (w *Writer) WriteUint16(val uint16) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
}

// WriteInt16 writes an int16 (2 bytes, LE).
func (w *Writer) WriteInt16(val int16) {
	w.WriteUint16(uint16(val))
}

// WriteInt32 writes an int32 (4 bytes, LE).
func (w *Writer) WriteInt32(val int32) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 24))
}

// WriteInt64 writes an int64 (8 bytes, LE).
func (w *Writer) WriteInt64(val int64) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 24))
	w.buf.WriteByte(byte(val >> 32))
	w.buf.WriteByte(byte(val >> 40))
	w.buf.WriteByte(byte(val >> 48))
	w.buf.WriteByte(byte(val >> 56))
}

// WriteFloat32 writes a float32 (4 bytes, LE).
func (w *Writer) WriteFloat32(val float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(val))
	w.buf.Write(tmp[:])
}

// WriteString writes an osu! string: 0x00 for the empty string, otherwise
// a 0x0b marker, ULEB128 byte length, and the UTF-8 data.
func (w *Writer) WriteString(s string) {
	if s == "" {
		w.buf.WriteByte(0x00)
		return
	}
	w.buf.WriteByte(0x0b)
	w.writeULEB128(uint64(len(s)))
	w.buf.WriteString(s)
}

// writeULEB128 encodes an unsigned LEB128 value.
func (w *Writer) writeULEB128(val uint64) {
	for {
		b := byte(val & 0x7f)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if val == 0 {
			return
		}
	}
}

// WriteInt32List16 writes a u16 count followed by the int32 values.
func (w *Writer) WriteInt32List16(vals []int32) {
	w.WriteUint16(uint16(len(vals)))
	for _, v := range vals {
		w.WriteInt32(v)
	}
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(data []byte) {
	_, _ = w.buf.Write(data)
}

// Bytes returns the accumulated packet data. The slice is invalidated by
// Reset or Put; callers keeping the data must copy it first.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Copy returns a copy of the accumulated packet data, safe to keep after
// the Writer is returned to the pool.
func (w *Writer) Copy() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out
}

// Len returns the current length of the packet.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
	w.frameStart = -1
}
