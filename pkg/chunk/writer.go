package chunk

import "bytes"

// Writer builds little-endian binary output. It is the mirror of Reader and
// is used by the SF2 and NI container writers.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// PutBytes appends raw bytes.
func (w *Writer) PutBytes(b []byte) {
	w.buf.Write(b)
}

// PutUint8 appends one byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf.WriteByte(v)
}

// PutUint16 appends a little-endian 16-bit unsigned integer.
func (w *Writer) PutUint16(v uint16) {
	w.buf.Write([]byte{byte(v), byte(v >> 8)})
}

// PutUint32 appends a little-endian 32-bit unsigned integer.
func (w *Writer) PutUint32(v uint32) {
	w.buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// PutUint64 appends a little-endian 64-bit unsigned integer.
func (w *Writer) PutUint64(v uint64) {
	w.PutUint32(uint32(v))
	w.PutUint32(uint32(v >> 32))
}

// PutInt16 appends a little-endian 16-bit two's-complement integer.
func (w *Writer) PutInt16(v int16) {
	w.PutUint16(uint16(v))
}

// PutFixedASCII appends s as a null-terminated field of exactly n bytes.
// Longer strings are truncated to n-1 bytes so the terminator always fits.
func (w *Writer) PutFixedASCII(s string, n int) {
	b := []byte(s)
	if len(b) > n-1 {
		b = b[:n-1]
	}
	w.buf.Write(b)
	for i := len(b); i < n; i++ {
		w.buf.WriteByte(0)
	}
}

// PutUTF16String appends a 32-bit character count followed by the UTF-16LE
// code units of s.
func (w *Writer) PutUTF16String(s string) error {
	b, err := EncodeUTF16(s)
	if err != nil {
		return err
	}
	w.PutUint32(uint32(len(b) / 2))
	w.buf.Write(b)
	return nil
}

// PutRIFFChunk appends a tagged chunk: 4-byte ID, 32-bit size, payload and
// the pad byte RIFF requires after odd-sized payloads.
func (w *Writer) PutRIFFChunk(id string, data []byte) {
	w.buf.WriteString(id)
	w.PutUint32(uint32(len(data)))
	w.buf.Write(data)
	if len(data)%2 == 1 {
		w.buf.WriteByte(0)
	}
}
